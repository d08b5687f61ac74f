package domain

// NoticeLevel — уровень уведомления для UI.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeInfo    NoticeLevel = "info"
	NoticeError   NoticeLevel = "error"
)

// Notice — человекочитаемое уведомление о результате операции.
type Notice struct {
	Level   NoticeLevel
	Message string
}

// NopNotifier отбрасывает уведомления.
type NopNotifier struct{}

// Notify ничего не делает.
func (NopNotifier) Notify(Notice) {}
