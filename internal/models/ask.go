package models

// AskResponse is returned by POST /ask.
type AskResponse struct {
	Question    string  `json:"question"`
	PDFFilename *string `json:"pdf_filename"`
	Answer      string  `json:"answer"`
}

// SimpleAnswer is returned by GET /.
type SimpleAnswer struct {
	Answer string `json:"answer"`
}

type Health struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
