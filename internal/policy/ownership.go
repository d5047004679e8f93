package policy

// Ownable is an interface for resources that have an owner.
// Implement this on your models to enable ownership-based authorization.
type Ownable interface {
	GetUserID() string
}

// Owns reports whether userID owns resource.
// A nil resource or one that doesn't implement Ownable is never owned,
// so callers can treat "missing" and "foreign" identically.
func Owns(userID string, resource any) bool {
	if userID == "" || resource == nil {
		return false
	}
	ownable, ok := resource.(Ownable)
	if !ok {
		return false
	}
	return ownable.GetUserID() == userID
}
