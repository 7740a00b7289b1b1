package session

// Player-facing texts.
const (
	msgMainMenu       = "Главное меню:"
	msgWelcomeBack    = "С возвращением, %s! Твой баланс: %d монет."
	msgWelcome        = "Привет! Добро пожаловать в FinQuest! 🚀\n\nЗдесь ты научишься управлять деньгами и прокачаешь своего героя.\n\nДля начала, придумай имя своему персонажу:"
	msgNeedStart      = "Сначала создай героя: напиши /start"
	msgFinishRegister = "Сначала закончи регистрацию."
	msgUseMenu        = "Используй меню внизу 👇"
	msgGenericError   = "⚠️ Что-то пошло не так. Попробуй еще раз."
	msgLostAccount    = "⚠️ Профиль не найден. Напиши /start, чтобы начать заново."
	msgStaleButton    = "Это меню уже закрыто. Выбери действие заново."
	msgBusy           = "⏳ Подожди, я еще отвечаю на прошлое сообщение."

	msgNameInvalid     = "Пожалуйста, придумай имя (до 32 символов)."
	msgNameAccepted    = "Отличное имя, %s!\n\nТеперь выбери класс персонажа:"
	msgClassInvalid    = "Пожалуйста, выбери класс из меню."
	msgAskAge          = "Сколько тебе лет? (Напиши число, например: 10)"
	msgAgeNotNumber    = "Пожалуйста, введи число."
	msgAgeOutOfRange   = "Пожалуйста, введи реальный возраст."
	msgHeroCreated     = "Герой создан! \nИмя: %s\nКласс: %s\nВозраст: %d\n\nТеперь ты готов к финансовым приключениям!"
	msgRegisterCancel  = "Регистрация отменена."
	msgProfileReset    = "Твой профиль сброшен! Напиши /start, чтобы начать заново."
	msgWallet          = "Твой кошелек:\n💳 Баланс: %d монет\n🔒 В сбережениях: %d монет"
	msgHero            = "Твой герой:\n👤 Имя: %s\n🧙 Класс: %s\n⭐ Уровень: %d\n🎂 Возраст: %d"
	msgCancelled       = "Отменено."
	msgChooseSubject   = "Выберите предмет для заработка:"
	msgSubjectInvalid  = "Выберите предмет из меню."
	msgQuestion        = "❓ %s\n\n(Награда: %d монет)"
	msgAnswerCorrect   = "✅ Правильно! Ты заработал %d монет."
	msgAnswerIncorrect = "❌ Неверно. Правильный ответ: %s."
	msgExplanation     = "\n\n💡 %s"

	msgBankMenu        = "🏦 *Касса Сбережений*\n\n💳 В кошельке: %d монет\n🔒 В сбережениях: %d монет\n\n📈 Ставка: %d%% в день\nЧто хочешь сделать?"
	msgBankAskDeposit  = "Сколько монет положить?\n💳 В кошельке: %d монет"
	msgBankAskWithdraw = "Сколько монет снять?\n🔒 В сбережениях: %d монет"
	msgBankInvalid     = "Пожалуйста, введи положительное число или выбери кнопку."
	msgBankEmpty       = "Здесь пока нечего переводить: 0 монет."
	msgBankNoWallet    = "❌ Недостаточно средств в кошельке!\n💳 У тебя: %d монет\n💸 Нужно: %d монет\n🧮 Не хватает: %d монет"
	msgBankNoSavings   = "❌ Недостаточно средств в сбережениях!\n🔒 У тебя: %d монет\n💸 Нужно: %d монет\n🧮 Не хватает: %d монет"
	msgDeposited       = "✅ Успешно!\n📥 Положено в сбережения: %d монет"
	msgWithdrawn       = "✅ Успешно!\n📤 Снято со счета: %d монет"

	msgMarketMenu      = "📈 *Биржа Активов*\n\nЧто хочешь сделать?"
	msgMarketBuyHeader = "💰 *Купить Активы*\n\nЦены меняются каждый раз!\n\n"
	msgMarketBuyItem   = "📦 *%s* — %d монет\n_%s_\n\n"
	msgMarketSellHead  = "💸 *Продать Активы*\n\nВыбери что продать (цена = 80% от стоимости):\n\n"
	msgMarketSellItem  = "📦 *%s* ×%d — %d монет\n"
	msgMarketSellEmpty = "У тебя нет предметов для продажи!"
	msgInventoryHeader = "🎒 *Твой Инвентарь*\n\n"
	msgInventoryItem   = "📦 %s: %d шт.\n"
	msgInventoryEmpty  = "Пусто! Купи что-нибудь на бирже."
	msgNoCoins         = "Недостаточно монет! Нужно %d, а у тебя %d. Не хватает %d."
	msgBought          = "✅ Ты купил %s за %d монет!"
	msgSold            = "✅ Ты продал %s за %d монет!"
	msgNotOwned        = "У тебя нет этого предмета!"
	msgItemUnknown     = "Такого предмета нет на бирже."
	msgMarketChoose    = "Выбери действие кнопкой."
	msgSellUsage       = "Напиши название предмета, например: /sell Rare Card"
	msgSellNoMatch     = "В твоем инвентаре нет ничего похожего на «%s»."

	msgShopHeader  = "🛒 *Магазин Игр*\n\n💳 Твой баланс: %d монет\n\nПокупай игры с ПОВЫШЕННЫМИ наградами!\n\n"
	msgShopItem    = "%s — %s\n"
	msgShopBought  = "✅ Покупка успешна!\n\n%s теперь доступна в разделе 💰 Фин-Заработок!\n\n🎁 Награда x%v"
	msgShopOwned   = "✅ Эта игра уже куплена! Играй в разделе 💰 Фин-Заработок"
	msgShopNoCoins = "❌ Недостаточно монет!\n💳 У тебя: %d\n💸 Нужно: %d\n🧮 Не хватает: %d"
	msgShopChoose  = "Выбери игру кнопкой ниже."
	msgShopUnknown = "Такой игры нет в магазине."

	msgJournalHeader = "📜 История операций\n\n"
	msgJournalEntry  = "%s %+d монет (%s)\n"
	msgJournalEmpty  = "Операций пока нет."
)
