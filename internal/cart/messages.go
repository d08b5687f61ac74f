package cart

import (
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	msgAdded         = "تمت الإضافة إلى السلة"
	msgOutOfStock    = "المنتج غير متوفر حالياً"
	msgAlreadyInCart = "هذا المنتج مضاف بالفعل في السلة"
	msgLimitReached  = "وصلت للحد الأقصى المتاح من هذا المنتج"
	msgOnlyAvailable = "متوفر فقط %d من هذا المنتج"
	msgInvalidQty    = "الكمية غير صالحة"
)

// noticeFor переводит результат операции в уведомление для пользователя.
// Возвращает false, если уведомлять не о чем.
func noticeFor(outcome domain.AddOutcome, err error) (domain.Notice, bool) {
	var limit *domain.StockLimitError
	switch {
	case err == nil && outcome == domain.AddOutcomeAdded:
		return domain.Notice{Level: domain.NoticeSuccess, Message: msgAdded}, true
	case errors.Is(err, domain.ErrAlreadyInCart):
		return domain.Notice{Level: domain.NoticeInfo, Message: msgAlreadyInCart}, true
	case errors.Is(err, domain.ErrOutOfStock):
		return domain.Notice{Level: domain.NoticeError, Message: msgOutOfStock}, true
	case errors.Is(err, domain.ErrStockLimitReached):
		return domain.Notice{Level: domain.NoticeError, Message: msgLimitReached}, true
	case errors.As(err, &limit) && limit.Absolute:
		return domain.Notice{Level: domain.NoticeError, Message: fmt.Sprintf(msgOnlyAvailable, limit.Stock)}, true
	case errors.As(err, &limit):
		return domain.Notice{Level: domain.NoticeError, Message: fmt.Sprintf(msgOnlyAvailable, limit.Available())}, true
	case errors.Is(err, domain.ErrQuantityInvalid):
		return domain.Notice{Level: domain.NoticeError, Message: msgInvalidQty}, true
	default:
		return domain.Notice{}, false
	}
}

// rejectionReason — короткая метка причины для метрик.
func rejectionReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrAlreadyInCart):
		return "already_in_cart"
	case errors.Is(err, domain.ErrOutOfStock):
		return "out_of_stock"
	case errors.Is(err, domain.ErrStockLimitReached):
		return "limit_reached"
	case errors.Is(err, domain.ErrStockLimitExceeded):
		return "limit_exceeded"
	case errors.Is(err, domain.ErrQuantityInvalid):
		return "invalid_quantity"
	default:
		return "persist_failed"
	}
}
