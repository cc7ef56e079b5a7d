package popup

// SubmitRequest is the body of POST /api/submit. A blank URL captures the
// active tab.
type SubmitRequest struct {
	URL string `json:"url"`
}

// SubmitAccepted is returned once a workflow has been started.
type SubmitAccepted struct {
	Status string `json:"status"`
}

// HealthResponse carries the connectivity text after a probe.
type HealthResponse struct {
	Connection string `json:"connection"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error"`
}
