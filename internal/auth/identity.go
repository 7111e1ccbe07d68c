// Package auth реализует два раздельных домена авторизации: пользователей
// и портал операторов. Идентичность оператора никогда не выводится из
// пользовательской учётной записи.
package auth

import "strconv"

// Kind - домен вызывающего
type Kind int

const (
	KindAnonymous Kind = iota
	KindUser
	KindOperator
)

func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindOperator:
		return "operator"
	default:
		return "anonymous"
	}
}

// Identity - тегированный вариант {Anonymous, User{id}, Operator}
type Identity struct {
	Kind     Kind   `json:"kind"`
	UserID   int64  `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
}

// Anonymous возвращает идентичность без привязки
func Anonymous() Identity {
	return Identity{Kind: KindAnonymous}
}

// UserIdentity возвращает идентичность пользовательского домена
func UserIdentity(userID int64, username string) Identity {
	return Identity{Kind: KindUser, UserID: userID, Username: username}
}

// OperatorIdentity возвращает идентичность оператора; user_id у неё нет
func OperatorIdentity(username string) Identity {
	return Identity{Kind: KindOperator, Username: username}
}

func (i Identity) IsUser() bool     { return i.Kind == KindUser && i.UserID > 0 }
func (i Identity) IsOperator() bool { return i.Kind == KindOperator }

// Actor - строка для журнала аудита и логов
func (i Identity) Actor() string {
	switch i.Kind {
	case KindUser:
		return "user:" + strconv.FormatInt(i.UserID, 10)
	case KindOperator:
		return "operator:" + i.Username
	default:
		return "anonymous"
	}
}
