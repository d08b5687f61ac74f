// Package notify содержит реализации domain.Notifier.
package notify

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Recorder накапливает уведомления одного запроса, чтобы вернуть их в ответе.
type Recorder struct {
	mu      sync.Mutex
	notices []domain.Notice
}

// NewRecorder создаёт пустой Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(notice domain.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice)
}

// Notices возвращает копию накопленных уведомлений в порядке поступления.
func (r *Recorder) Notices() []domain.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Last возвращает последнее уведомление.
func (r *Recorder) Last() (domain.Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.notices) == 0 {
		return domain.Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}

// LogNotifier пишет уведомления в лог.
type LogNotifier struct {
	logger *log.Entry
}

// NewLogNotifier создаёт LogNotifier.
func NewLogNotifier(logger *log.Entry) *LogNotifier {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &LogNotifier{logger: logger.WithField("component", "notifier")}
}

func (n *LogNotifier) Notify(notice domain.Notice) {
	entry := n.logger.WithField("level_ui", notice.Level)
	switch notice.Level {
	case domain.NoticeError:
		entry.Warn(notice.Message)
	default:
		entry.Info(notice.Message)
	}
}

// Fanout рассылает уведомление всем получателям.
type Fanout []domain.Notifier

func (f Fanout) Notify(notice domain.Notice) {
	for _, n := range f {
		if n != nil {
			n.Notify(notice)
		}
	}
}

var (
	_ domain.Notifier = (*Recorder)(nil)
	_ domain.Notifier = (*LogNotifier)(nil)
	_ domain.Notifier = Fanout(nil)
)
