package domain

// Event records a fact that already happened. Events fan out to zero or
// more handlers; failures there never undo the fact.
type Event interface {
	EventName() string
}

type UserRegistered struct {
	UserID   int64
	Email    string
	Username string
}

type PostCreated struct {
	PostID   int64
	UserID   int64
	Username string
}

type CommentAdded struct {
	PostID    int64
	CommentID int64
	UserID    int64
}

type LikeToggled struct {
	PostID int64
	UserID int64
	Liked  bool
}

type PasswordChanged struct {
	UserID int64
}

type FileUploaded struct {
	FileName string
	FileURL  string
}

func (UserRegistered) EventName() string  { return "UserRegistered" }
func (PostCreated) EventName() string     { return "PostCreated" }
func (CommentAdded) EventName() string    { return "CommentAdded" }
func (LikeToggled) EventName() string     { return "LikeToggled" }
func (PasswordChanged) EventName() string { return "PasswordChanged" }
func (FileUploaded) EventName() string    { return "FileUploaded" }
