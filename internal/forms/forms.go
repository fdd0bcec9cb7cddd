// Package forms declares the HTML forms and the rules each one enforces.
package forms

// MessageForm composes a new warble.
type MessageForm struct {
	Text string `form:"text" label:"Text" validate:"required,notblank,max=140"`
}

// UserAddForm is the signup form.
type UserAddForm struct {
	Username string `form:"username" label:"Username" validate:"required,notblank,max=64"`
	Email    string `form:"email" label:"E-mail" validate:"required,email"`
	Password string `form:"password" label:"Password" validate:"min=6,maxbytes=72"`
	ImageURL string `form:"image_url" label:"(Optional) Image URL" validate:"omitempty,max=2048"`
}

// LoginForm authenticates an existing user.
type LoginForm struct {
	Username string `form:"username" label:"Username" validate:"required,notblank"`
	Password string `form:"password" label:"Password" validate:"min=6"`
}

// UserEditForm updates the current user's profile. Password is the current
// password and must be re-entered to save.
type UserEditForm struct {
	Username       string `form:"username" label:"Username" validate:"required,notblank,max=64"`
	Email          string `form:"email" label:"E-mail" validate:"required,email"`
	ImageURL       string `form:"image_url" label:"(Optional) Image URL" validate:"omitempty,max=2048"`
	HeaderImageURL string `form:"header_image_url" label:"(Optional) Header Image URL" validate:"omitempty,max=2048"`
	Bio            string `form:"bio" label:"User Bio" validate:"omitempty,max=1000"`
	Location       string `form:"location" label:"Location" validate:"omitempty,max=100"`
	Password       string `form:"password" label:"Current Password" validate:"required,min=6"`
}

// EditPasswordForm changes the current user's password.
type EditPasswordForm struct {
	OldPassword string `form:"old_password" label:"Current Password" validate:"min=6"`
	NewPassword string `form:"new_password" label:"New Password" validate:"min=6,maxbytes=72,eqfield=Confirm" eqfield_msg:"New passwords must match!"`
	Confirm     string `form:"confirm" label:"Confirm New Password" validate:"min=6,maxbytes=72"`
}
