package data

import (
	"encoding/json"
	"fmt"
)

// DescriptorConfigName is the descriptor key naming the configuration set
// a collection uses.
const DescriptorConfigName = "configName"

// CollectionDescriptor is the payload stored on a collection's root node.
type CollectionDescriptor map[string]any

func NewCollectionDescriptor(configName string) CollectionDescriptor {
	return CollectionDescriptor{
		DescriptorConfigName: configName,
	}
}

// ConfigName returns the configuration set name, or an empty string if unset.
func (cd CollectionDescriptor) ConfigName() string {
	name, _ := cd[DescriptorConfigName].(string)
	return name
}

// Marshal encodes the descriptor as JSON.
func (cd CollectionDescriptor) Marshal() ([]byte, error) {
	bytes, err := json.Marshal(cd)
	if err != nil {
		return nil, fmt.Errorf("%w: collection descriptor: %v", ErrSerialization, err)
	}

	return bytes, nil
}

// ParseCollectionDescriptor decodes a JSON payload read from a collection node.
func ParseCollectionDescriptor(payload []byte) (CollectionDescriptor, error) {
	cd := CollectionDescriptor{}
	if len(payload) == 0 {
		return cd, nil
	}

	if err := json.Unmarshal(payload, &cd); err != nil {
		return nil, fmt.Errorf("%w: collection descriptor: %v", ErrSerialization, err)
	}
	if cd == nil {
		return nil, fmt.Errorf("%w: collection descriptor is not an object", ErrSerialization)
	}

	return cd, nil
}
