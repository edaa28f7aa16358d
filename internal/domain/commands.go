package domain

// Command is a request to change state. Every command has exactly one
// handler registered on the message bus.
type Command interface {
	CommandName() string
}

type RegisterUser struct {
	Email     string
	Username  string // optional; derived from the email's local part when empty
	Password  string
	Bio       string
	Location  string
	AvatarURL string
}

type CreatePost struct {
	UserID   int64
	Body     string
	ImageURL string
}

type AddComment struct {
	PostID int64
	UserID int64
	Body   string
}

type ToggleLike struct {
	PostID int64
	UserID int64
}

type UploadFile struct {
	FileName  string
	LocalPath string
}

// UpdateProfile carries partial-update semantics: nil fields are left
// untouched on the aggregate.
type UpdateProfile struct {
	UserID    int64
	Bio       *string
	Location  *string
	AvatarURL *string
}

// ChangePassword carries an already hashed password; hashing and
// verification of the old password happen at the transport layer.
type ChangePassword struct {
	UserID          int64
	NewPasswordHash string
}

type DeleteAccount struct {
	UserID int64
}

func (RegisterUser) CommandName() string   { return "RegisterUser" }
func (CreatePost) CommandName() string     { return "CreatePost" }
func (AddComment) CommandName() string     { return "AddComment" }
func (ToggleLike) CommandName() string     { return "ToggleLike" }
func (UploadFile) CommandName() string     { return "UploadFile" }
func (UpdateProfile) CommandName() string  { return "UpdateProfile" }
func (ChangePassword) CommandName() string { return "ChangePassword" }
func (DeleteAccount) CommandName() string  { return "DeleteAccount" }
