package entity

// UserState состояние пользователя в диалоге
type UserState string

const (
	StateMainMenu            UserState = "main_menu"             // В главном меню
	StateAwaitingBeforePhoto UserState = "awaiting_before_photo" // Ожидание снимка «до»
	StateAwaitingAfterPhoto  UserState = "awaiting_after_photo"  // Ожидание снимка «после»
	StateAwaitingAge         UserState = "awaiting_age"          // Ожидание возраста
	StateAwaitingWeeks       UserState = "awaiting_weeks"        // Ожидание интервала в неделях
	StateProcessing          UserState = "processing"            // Обработка снимков
)

// User представляет пользователя бота
type User struct {
	ID     int64     // Telegram User ID
	ChatID int64     // Telegram Chat ID
	State  UserState // Текущее состояние пользователя
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}

// Busy сообщает, что пользователь в середине сценария
func (u *User) Busy() bool {
	return u.State != StateMainMenu
}
