package storage

type User struct {
	ID           string
	Login        string
	PasswordHash string
	CreatedAt    int64
}

type Session struct {
	Token     string
	UserID    string
	ExpiresAt int64
	CreatedAt int64
}

type UserState struct {
	UserID    string
	StateJSON string
	Version   int64
	UpdatedAt int64
}

type ReportExport struct {
	ID            int64
	UserID        string
	Month         string
	Version       int64
	CategoryCount int64
	SheetRef      string
	ExportedAt    int64
}
