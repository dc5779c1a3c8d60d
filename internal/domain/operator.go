package domain

// OperatorRole представляет роль оператора КПП.
// Учетные записи операторов живут во внешнем сервисе аутентификации,
// ядру нужна только роль из токена
type OperatorRole string

const (
	RoleGuard OperatorRole = "guard" // Охранник на КПП
	RoleAdmin OperatorRole = "admin" // Администратор площадки
)
