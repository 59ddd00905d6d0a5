package model

import "time"

// User represents an application user record as stored in the
// `users` table.  Regular users book spots; administrators manage
// lots and see the aggregate views.  The password is never stored
// in clear text, only its bcrypt hash.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  Name         – display name shown in the navigation bar.
//  IsAdmin      – whether the account may use the admin pages.
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    `db:"id"`            // users.id
	Email        string    `db:"email"`         // users.email
	PasswordHash string    `db:"password_hash"` // users.password_hash
	Name         string    `db:"name"`          // users.name
	IsAdmin      bool      `db:"is_admin"`      // users.is_admin
	CreatedAt    time.Time `db:"created_at"`    // users.created_at
}
