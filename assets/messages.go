package messages

// Тексты, которые бот отправляет в группы. Все форматные строки собираются
// через fmt.Sprintf в координаторе.

const (
	WelcomeMessage = `Привет! Я бот разговорной практики. Я превращаю группу в комнату для живой практики языка: собираю участников, слежу за голосовым чатом и закрываю комнату по таймеру.`

	HelpMessage = `Команды:
/practice <минуты> <тема> — открыть комнату практики (только для админов)
/stopsession — досрочно завершить сессию
/remove <@ник или имя> — удалить участника из комнаты`

	// SessionWelcome - приветствие в группе после создания комнаты. %s - тема.
	SessionWelcome = `🗣 Комната практики открыта!

Тема: <b>%s</b>

Зовите друзей по ссылке-приглашению. Как только вас будет двое (не считая бота и организатора) — запускайте голосовой чат.`

	ModerationNotice = `ℹ️ Каждый участник получает права модератора: вы сами можете запускать и останавливать голосовой чат. Удалить мешающего участника: /remove <@ник>`

	// NotEnoughParticipants - мало людей, комната скоро закроется. %d - минуты до закрытия.
	NotEnoughParticipants = `⏳ Пока маловато участников. Если в течение %d мин. никто не присоединится, комната закроется.`

	// StartVoiceChatPrompt - участников достаточно. %d - минуты на запуск войс-чата.
	StartVoiceChatPrompt = `✅ Участников достаточно! Запускайте голосовой чат — у вас есть %d мин.`

	VoiceChatFinalWarning = `⚠️ Осталась 1 минута, чтобы запустить голосовой чат. Иначе комната закроется.`

	// VoiceChatConfirmed - войс-чат запущен. %d - длительность сессии в минутах.
	VoiceChatConfirmed = `🎙 Поехали! Практика продлится %d мин. Я напомню, когда время будет подходить к концу.`

	VoiceChatTooFew = `🚫 Нельзя начинать: в комнате меньше двух участников. Подождите остальных.`

	// ReminderMinutesLeft - напоминание. %d - сколько минут осталось.
	ReminderMinutesLeft = `⏰ Осталось %d мин.`

	FinalMinuteReminder = `⏰ Последняя минута! Заканчивайте мысль :)`

	ClosingMessage = `🏁 Сессия завершена. Спасибо за практику! Через минуту комната будет очищена и вернётся в пул.`

	// AvailableTitle / AvailableDescription - нейтральный шаблон свободной группы.
	AvailableTitle       = `Свободная комната практики`
	AvailableDescription = `Комната свободна. Новая сессия начнётся, когда администратор откроет её командой /practice.`

	// RemovedMember - результат /remove. %s - имя участника.
	RemovedMember = `👋 %s удалён из комнаты (бан на 24 часа).`

	CannotRemoveOwner  = `🚫 Нельзя удалить организатора комнаты.`
	CannotRemoveBot    = `🚫 Хорошая попытка, но себя я не удалю.`
	MemberNotFound     = `Не нашёл такого участника в комнате.`
	SessionNotStarted  = `В этой группе сейчас нет активной сессии.`
	SessionAlreadyRuns = `В этой группе уже идёт сессия.`

	PracticeUsage = `Формат: /practice <минуты> <тема>
Например: /practice 20 Дорожные фразы`

	GroupOnlyCommand     = `Эта команда работает только в группе.`
	BotIsNotAdmin        = `Сделайте бота администратором группы, иначе я не смогу управлять комнатой.`
	OnlyAdminsCommand    = `🚫 Только администратор может использовать эту команду.`
	ErrorMessagesForUser = `Что-то пошло не так. Попробуйте ещё раз чуть позже.`
)
