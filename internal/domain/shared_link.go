package domain

import "time"

// SharedLink представляет временную публичную ссылку на видео.
// Токен — единственный ключ доступа, истечение срока логическое.
type SharedLink struct {
	ID         int64     `json:"id" db:"id"`
	VideoID    int64     `json:"videoId" db:"video_id"`
	ShareToken string    `json:"shareToken" db:"share_token"`
	ExpiresAt  time.Time `json:"expiresAt" db:"expires_at"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// Expired сообщает, истекла ли ссылка на момент now.
// Граница включительная: в момент expiresAt ссылка уже недействительна.
func (l *SharedLink) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}
