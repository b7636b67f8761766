package domain

// Field is an optional request value. Set distinguishes an absent key from an
// explicit null; Value holds whatever JSON type the client sent.
type Field struct {
	Set   bool
	Value any
}

// UserInput is the allow-listed body of register, login and update requests.
type UserInput struct {
	Name     Field
	Age      Field
	Email    Field
	Password Field
}

// Empty reports whether no allowed key was present.
func (in UserInput) Empty() bool {
	return !in.Name.Set && !in.Age.Set && !in.Email.Set && !in.Password.Set
}
