package users

type UserRepo interface {
	Create(account *Account) error
	Update(account *Account) error
	GetByEmail(email string) (*Account, error)
	GetByID(id int64) (*Account, error)
	// BumpTokenVersion invalidates every token issued to the user so far.
	BumpTokenVersion(id int64) (int, error)
}
