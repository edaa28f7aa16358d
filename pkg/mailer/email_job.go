package mailer

// EmailJob is the JSON payload the service publishes to the RabbitMQ
// email queue and the worker consumes. Text is the fallback body when no
// HTML is given.
type EmailJob struct {
	To      string `json:"to"`
	Subject string `json:"subject,omitempty"`
	Text    string `json:"text,omitempty"`
	HTML    string `json:"html,omitempty"`
}
