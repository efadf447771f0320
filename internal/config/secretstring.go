package config

// SecretStringValue replaces secrets in dumped configuration.
const SecretStringValue = "<secret>"

// SecretString is a string that is never revealed when configuration is
// marshaled.
type SecretString string

func (s SecretString) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("null"), nil
	}
	return []byte("\"" + SecretStringValue + "\""), nil
}

func (s SecretString) MarshalYAML() (any, error) {
	if len(s) == 0 {
		return nil, nil
	}
	return SecretStringValue, nil
}

func (s SecretString) String() string {
	return string(s)
}
