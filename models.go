package session

import "time"

// User as returned by the backend
type User struct {
	ID         string    `json:"id,omitempty"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Role       string    `json:"role,omitempty"`
	IsVerified bool      `json:"isVerified"`
	Bio        string    `json:"bio,omitempty"`
	AvatarURL  string    `json:"avatarUrl,omitempty"`
	CreatedAt  time.Time `json:"createdAt,omitempty"`
}

// NormalizedRole maps the raw backend role to a Role
func (u User) NormalizedRole() Role {
	return NormalizeRole(u.Role)
}

type Post struct {
	ID        string    `json:"id,omitempty"`
	AuthorID  string    `json:"authorId,omitempty"`
	GroupID   string    `json:"groupId,omitempty"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

type Group struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     string    `json:"ownerId,omitempty"`
	Private     bool      `json:"private"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

type Comment struct {
	ID        string    `json:"id,omitempty"`
	PostID    string    `json:"postId"`
	AuthorID  string    `json:"authorId,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

type Event struct {
	ID          string    `json:"id,omitempty"`
	GroupID     string    `json:"groupId,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt,omitempty"`
}

// ReactionType is the kind of reaction left on a post or comment
type ReactionType string

const (
	ReactionLike  ReactionType = "LIKE"
	ReactionLove  ReactionType = "LOVE"
	ReactionHaha  ReactionType = "HAHA"
	ReactionSad   ReactionType = "SAD"
	ReactionAngry ReactionType = "ANGRY"
)

type Reaction struct {
	ID        string       `json:"id,omitempty"`
	UserID    string       `json:"userId,omitempty"`
	PostID    string       `json:"postId,omitempty"`
	CommentID string       `json:"commentId,omitempty"`
	Type      ReactionType `json:"type"`
}

type Notification struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}
