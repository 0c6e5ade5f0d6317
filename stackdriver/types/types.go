package types

// ServiceContext identifies the application an error event belongs to
type ServiceContext struct {
	Service string `json:"service"`
	Version string `json:"version,omitempty"`
}

// SourceLocation points at the code that reported the error
type SourceLocation struct {
	FilePath     string `json:"filePath"`
	LineNumber   int    `json:"lineNumber"`
	FunctionName string `json:"functionName"`
}

// SourceReference ties an error to a repository revision
type SourceReference struct {
	Repository string `json:"repository"`
	RevisionID string `json:"revisionId"`
}

// HTTPRequestContext describes the HTTP request being served when the error occurred.
// Nothing in this module populates it.
type HTTPRequestContext struct {
	Method             string `json:"method,omitempty"`
	URL                string `json:"url,omitempty"`
	UserAgent          string `json:"userAgent,omitempty"`
	Referrer           string `json:"referrer,omitempty"`
	ResponseStatusCode int    `json:"responseStatusCode,omitempty"`
	RemoteIP           string `json:"remoteIp,omitempty"`
}

// ErrorContext carries additional information about an error event
type ErrorContext struct {
	HTTPRequest      *HTTPRequestContext `json:"httpRequest,omitempty"`
	User             string              `json:"user,omitempty"`
	ReportLocation   *SourceLocation     `json:"reportLocation,omitempty"`
	SourceReferences *SourceReference    `json:"sourceReferences,omitempty"`
}

// ReportedErrorEvent is the body of an events:report request
type ReportedErrorEvent struct {
	EventTime      string         `json:"eventTime,omitempty"`
	ServiceContext ServiceContext `json:"serviceContext"`
	Message        string         `json:"message"`
	Context        ErrorContext   `json:"context"`
}
