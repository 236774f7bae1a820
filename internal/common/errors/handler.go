// internal/common/errors/handler.go
package errors

// Notice is the user-visible, dismissible form of a failure.
type Notice struct {
	Title       string `json:"title"`
	Message     string `json:"message"`
	Code        string `json:"code"`
	Retryable   bool   `json:"retryable"`
	Dismissible bool   `json:"dismissible"`
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

// Presenter turns operation errors into notices. Nothing is retried here;
// a retryable notice only tells the caller to offer a retry affordance.
type Presenter struct {
	logger Logger
}

func NewPresenter(logger Logger) *Presenter {
	return &Presenter{logger: logger}
}

// Present normalizes err, logs it and returns the notice to show.
func (p *Presenter) Present(operation string, err error) *Notice {
	if err == nil {
		return nil
	}
	stdErr := Normalize(err)

	if p.logger != nil {
		p.logger.Error("operation failed", map[string]interface{}{
			"operation":     operation,
			"errorCode":     string(stdErr.Code),
			"message":       stdErr.Message,
			"details":       stdErr.Details,
			"retryable":     stdErr.Retryable,
			"errorCategory": GetErrorCategory(stdErr.Code),
		})
	}

	return &Notice{
		Title:       titleFor(stdErr.Code),
		Message:     stdErr.Message,
		Code:        string(stdErr.Code),
		Retryable:   stdErr.Retryable,
		Dismissible: true,
	}
}

func titleFor(code ErrorCode) string {
	switch code {
	case ErrCodeNetwork:
		return "Bağlantı hatası"
	case ErrCodeBackendRejection:
		return "İşlem reddedildi"
	case ErrCodeInvalidTransition:
		return "Talep durumu değiştirilemedi"
	case ErrCodeExportDelivery:
		return "Dışa aktarma hatası"
	case ErrCodeValidation:
		return "Geçersiz işlem"
	case ErrCodeSession:
		return "Oturum hatası"
	default:
		return "Hata"
	}
}
