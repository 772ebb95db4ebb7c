package errors

func NodeExists(sentinel error, path string) error {
	return newError(sentinel, "'%s'", path)
}

func NoNode(sentinel error, path string) error {
	return newError(sentinel, "'%s'", path)
}

func NotEmpty(sentinel error, path string, children int) error {
	return newError(sentinel, "'%s' has %d children", path, children)
}

func PayloadTooLarge(sentinel error, path string, size, limit int) error {
	return newError(sentinel, "'%s' payload of %d bytes exceeds %d bytes", path, size, limit)
}

func Unsupported(sentinel error, store, operation string) error {
	return newError(sentinel, "%s does not support %s", store, operation)
}

func ConnectionLoss(sentinel, cause error, address string) error {
	return newCausedError(sentinel, cause, "store at '%s'", address)
}

func SourceNotExist(sentinel error, location string) error {
	return newError(sentinel, "'%s'", location)
}
