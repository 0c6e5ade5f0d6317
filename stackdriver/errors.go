package stackdriver

// ConfigurationError is returned by New when a required setting is missing.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "cannot initialize: " + e.Reason
}
