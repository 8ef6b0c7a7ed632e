package model

import "time"

// Role identifies which account directory a record belongs to.  The three
// directories are keyed independently, so the same email may exist once per
// role.
type Role string

const (
    RoleUser   Role = "USER"
    RoleMentor Role = "MENTOR"
    RoleAdmin  Role = "ADMIN"
)

// SelfRegistered reports whether accounts of this role are created through
// signup.  The admin account is materialised on its first login instead.
func (r Role) SelfRegistered() bool { return r == RoleUser || r == RoleMentor }

// Profile carries the descriptive fields captured at signup (name, contact,
// demographic or professional attributes).  The auth workflow never reads it.
type Profile map[string]string

// Account represents a row in one of the `users`, `mentors` or `admins`
// tables.  All three share this shape.
//
// Fields:
//  ID        – opaque identifier assigned at creation, never changed.
//  Email     – normalised login key, unique per role.
//  OTPCode   – pending one-time code, nil when none is outstanding.
//  OTPExpiry – expiry of OTPCode; set and cleared together with it.
//  Active    – users/mentors: signup verified; admin: current login verified.
//  Profile   – opaque signup payload.
//  CreatedAt – timestamp of creation.
type Account struct {
    ID        string
    Role      Role
    Email     string
    OTPCode   *string
    OTPExpiry *time.Time
    Active    bool
    Profile   Profile
    CreatedAt time.Time
}

// SetOTP stores a freshly issued code together with its expiry.
func (a *Account) SetOTP(code string, expiry time.Time) {
    a.OTPCode = &code
    a.OTPExpiry = &expiry
}

// ClearOTP drops the outstanding code and its expiry.
func (a *Account) ClearOTP() {
    a.OTPCode = nil
    a.OTPExpiry = nil
}

// Clone returns a deep copy so that stores never share mutable state with
// callers.
func (a Account) Clone() Account {
    out := a
    if a.OTPCode != nil {
        code := *a.OTPCode
        out.OTPCode = &code
    }
    if a.OTPExpiry != nil {
        exp := *a.OTPExpiry
        out.OTPExpiry = &exp
    }
    if a.Profile != nil {
        out.Profile = make(Profile, len(a.Profile))
        for k, v := range a.Profile {
            out.Profile[k] = v
        }
    }
    return out
}
