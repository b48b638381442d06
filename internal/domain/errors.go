package domain

import "errors"

// Доменные ошибки валидации и бизнес-правил
var (
	// ErrInvalidEmail возвращается при неверном формате email
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrEmailRegistered возвращается при повторной регистрации email
	ErrEmailRegistered = errors.New("email already registered")

	// ErrWeakPassword возвращается если пароль не проходит требования
	ErrWeakPassword = errors.New("password must be at least 8 characters and contain uppercase, lowercase, and numbers")

	// ErrInvalidCredentials возвращается при неверном email или пароле
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUnauthorized возвращается при отсутствии аутентификации
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidToken возвращается когда JWT токен невалиден
	ErrInvalidToken = errors.New("invalid token")

	// ErrUserNotFound возвращается когда пользователь не найден
	ErrUserNotFound = errors.New("user not found")

	// ErrTeamNotFound возвращается когда команда не найдена
	ErrTeamNotFound = errors.New("team not found")

	// ErrInsufficientPermissions возвращается если роль не позволяет действие
	ErrInsufficientPermissions = errors.New("insufficient permissions")

	// ErrAlreadyMember возвращается при приглашении участника команды
	ErrAlreadyMember = errors.New("user is already a team member")

	// ErrInvitationNotFound возвращается когда приглашение не найдено
	ErrInvitationNotFound = errors.New("invitation not found")

	// ErrInvitationNotForUser возвращается при принятии чужого приглашения
	ErrInvitationNotForUser = errors.New("invitation not for this user")

	// ErrInvitationProcessed возвращается при повторном принятии приглашения
	ErrInvitationProcessed = errors.New("invitation already processed")

	// ErrInvitationExpired возвращается при принятии истекшего приглашения
	ErrInvitationExpired = errors.New("invitation has expired")

	// ErrTaskNotFound возвращается когда задача не найдена
	ErrTaskNotFound = errors.New("task not found")

	// ErrEmptyTask возвращается если текст задачи пустой
	ErrEmptyTask = errors.New("task text is empty")

	// ErrTaskCompleted возвращается при попытке запустить таймер или напоминание завершенной задачи
	ErrTaskCompleted = errors.New("task is completed")

	// ErrTimerNotRunning возвращается при остановке неактивного таймера
	ErrTimerNotRunning = errors.New("timer is not running")

	// ErrInvalidReminder возвращается при неверном интервале напоминания
	ErrInvalidReminder = errors.New("reminder must be a positive number of minutes")

	// ErrEmptyComment возвращается если текст комментария пустой
	ErrEmptyComment = errors.New("comment text is empty")

	// ErrPlanLimitReached возвращается при превышении лимита задач тарифа
	ErrPlanLimitReached = errors.New("plan task limit reached")

	// ErrUnknownPlan возвращается при выборе несуществующего тарифа
	ErrUnknownPlan = errors.New("unknown plan")

	// ErrNotConfigured возвращается если ключ стороннего API не настроен
	ErrNotConfigured = errors.New("api credentials not configured")

	// ErrValidation возвращается при ошибке валидации запроса
	ErrValidation = errors.New("validation failed")
)

// ErrorCode представляет коды ошибок API
type ErrorCode string

// Коды ошибок API
const (
	CodeBadRequest        ErrorCode = "BAD_REQUEST"
	CodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	CodeForbidden         ErrorCode = "FORBIDDEN"
	CodeNotFound          ErrorCode = "NOT_FOUND"
	CodeConflict          ErrorCode = "CONFLICT"
	CodeEmailRegistered   ErrorCode = "EMAIL_REGISTERED"
	CodeInvitationExpired ErrorCode = "INVITATION_EXPIRED"
	CodePlanLimit         ErrorCode = "PLAN_LIMIT"
	CodeNotConfigured     ErrorCode = "NOT_CONFIGURED"
	CodeInternal          ErrorCode = "INTERNAL_ERROR"
)

// MapErrorToCode преобразует доменные ошибки в коды ошибок API
func MapErrorToCode(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrWeakPassword),
		errors.Is(err, ErrEmptyTask), errors.Is(err, ErrInvalidReminder),
		errors.Is(err, ErrEmptyComment), errors.Is(err, ErrUnknownPlan),
		errors.Is(err, ErrValidation):
		return CodeBadRequest
	case errors.Is(err, ErrEmailRegistered):
		return CodeEmailRegistered
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrInvalidToken):
		return CodeUnauthorized
	case errors.Is(err, ErrInsufficientPermissions), errors.Is(err, ErrInvitationNotForUser):
		return CodeForbidden
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrTeamNotFound),
		errors.Is(err, ErrInvitationNotFound), errors.Is(err, ErrTaskNotFound):
		return CodeNotFound
	case errors.Is(err, ErrAlreadyMember), errors.Is(err, ErrInvitationProcessed),
		errors.Is(err, ErrTaskCompleted), errors.Is(err, ErrTimerNotRunning):
		return CodeConflict
	case errors.Is(err, ErrInvitationExpired):
		return CodeInvitationExpired
	case errors.Is(err, ErrPlanLimitReached):
		return CodePlanLimit
	case errors.Is(err, ErrNotConfigured):
		return CodeNotConfigured
	default:
		return CodeInternal
	}
}
