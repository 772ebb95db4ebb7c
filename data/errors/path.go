package errors

func InvalidPath(sentinel error, path, reason string) error {
	return newError(sentinel, "'%s': %s", path, reason)
}
