package models

import "time"

// We use 'db' tags for sqlx to map the database column names (snake_case)
// to our Go fields (CamelCase). Password hashes are never serialized.

// Role is the access tier of a user. Roles form a total order:
// user < admin < superuser.
type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleSuperuser Role = "superuser"
)

var roleRank = map[Role]int{
	RoleUser:      0,
	RoleAdmin:     1,
	RoleSuperuser: 2,
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r sits at or above min in the role order.
// Unknown roles never satisfy any gate.
func (r Role) AtLeast(min Role) bool {
	rr, ok := roleRank[r]
	if !ok {
		return false
	}
	return rr >= roleRank[min]
}

// User represents a registered account.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	Role         Role      `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Blog is a published news entry. Writes are restricted to admin and
// superuser accounts; reads are public.
type Blog struct {
	ID         int64     `db:"id" json:"id"`
	Title      string    `db:"title" json:"title"`
	Content    string    `db:"content" json:"content"`
	Image      string    `db:"image" json:"image"`
	AuthorID   int64     `db:"author_id" json:"authorId"`
	AuthorName string    `db:"author_name" json:"authorName"`
	Tags       Tags      `db:"tags" json:"tags"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// Donation types accepted by the payment endpoint.
const (
	DonationOneTime = "one-time"
	DonationMonthly = "monthly"
)

// Payment statuses. The only transition implemented is
// active -> cancelled, via the cancel operation.
const (
	PaymentActive    = "active"
	PaymentCancelled = "cancelled"
	PaymentFailed    = "failed"
	PaymentCompleted = "completed"
)

// Payment is a recorded donation. Card details never reach this struct;
// only the opaque gateway transaction id is kept.
type Payment struct {
	ID               int64      `db:"id" json:"id"`
	DonationType     string     `db:"donation_type" json:"donationType"`
	Amount           float64    `db:"amount" json:"amount"`
	IsCorporate      bool       `db:"is_corporate" json:"isCorporate"`
	InstitutionName  string     `db:"institution_name" json:"institutionName,omitempty"`
	Name             string     `db:"name" json:"name"`
	Email            string     `db:"email" json:"email"`
	DonateForSomeone bool       `db:"donate_for_someone" json:"donateForSomeone"`
	RecipientName    string     `db:"recipient_name" json:"recipientName,omitempty"`
	RecipientSurname string     `db:"recipient_surname" json:"recipientSurname,omitempty"`
	DeductionDay     *int       `db:"deduction_day" json:"deductionDay,omitempty"`
	Status           string     `db:"status" json:"status"`
	TransactionID    string     `db:"transaction_id" json:"transactionId,omitempty"`
	CancelledAt      *time.Time `db:"cancelled_at" json:"cancelledAt,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"createdAt"`
}
