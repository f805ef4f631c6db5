package view

const (
	StartMessage = "🚀 <b>TonHunter</b> — безопасный P2P-гарант TON\n\n" +
		"✅ Автоматический поиск выгодных сделок на Avito\n" +
		"🛡️ Полная защита через escrow\n" +
		"💰 Комиссия всего 1.9%\n\n" +
		"<i>Команды:</i>\n" +
		"/deals — свежие сделки\n" +
		"/my — мои сделки\n" +
		"/rating — рейтинг продавца\n" +
		"/settings — настройки\n\n" +
		"/premium — без комиссии + приоритет"

	DealsEmpty = "Пока нет свободных сделок, сканер работает."

	DealUnavailable = "❌ Сделка уже занята или завершена"
	DealNotFound    = "❌ Сделка не найдена"
	NotYourDeal     = "❌ Это чужая сделка"

	PaymentPending = "⏳ Платёж ещё не прошёл. Подожди 10–30 секунд."

	AddressInvalid = "❌ Неверный формат TON-адреса!\n\n" +
		"✅ Правильные примеры:\n" +
		"• <code>EQABC...xyz123</code>\n" +
		"• <code>UQDEF...abc456</code>\n\n" +
		"Попробуй ещё раз:"

	AddressNoDeal = "Нет сделки, ожидающей адрес. Сначала оплати сделку."

	CancelDone = "Сделка отменена."

	ReviewUsage   = "Использование: /review <id сделки> <оценка 1-5> [текст]"
	ReviewSaved   = "✅ Отзыв сохранён, спасибо!"
	ReviewBadDeal = "❌ Оставить отзыв можно только по своей сделке"

	RatingUsage = "Использование: /rating <имя продавца>"

	BroadcastUsage = "❌ Укажи текст для рассылки"

	StartFirst = "❌ Сначала /start"

	SettingsUsage = "Изменить: /settings city <город> | /settings margin <число> | /settings methods <список>"
	SettingsSaved = "✅ Настройки сохранены"

	PremiumUnavailable = "Оплата премиума временно недоступна."
	PremiumActivated   = "🎉 <b>ПРЕМИУМ АКТИВИРОВАН!</b>\n\n" +
		"✅ Уведомления каждые 30 секунд\n" +
		"✅ 0% комиссии на сделки\n" +
		"✅ Приоритет в очередях\n\n" +
		"Спасибо за доверие! 🚀"

	InternalError = "Что-то пошло не так, попробуй позже."
)
