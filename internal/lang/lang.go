// Package lang provides the bot's localized strings. Lookups fall back
// to the default language and finally to the key itself, so a missing
// translation never produces an empty message.
package lang

// DefaultLanguage is used when a user has no stored preference.
const DefaultLanguage = "ua"

// Supported lists the selectable language codes in keyboard order.
var Supported = []string{"ua", "ru", "en"}

// Get returns the string for key in the given language.
func Get(language, key string) string {
	if table, ok := tables[language]; ok {
		if s, ok := table[key]; ok {
			return s
		}
	}
	if s, ok := tables[DefaultLanguage][key]; ok {
		return s
	}
	return key
}

// IsSupported reports whether code is a selectable language.
func IsSupported(code string) bool {
	_, ok := tables[code]
	return ok
}

var tables = map[string]map[string]string{
	"en": {
		"choose_language":     "Choose your language:",
		"language_set":        "Language saved.",
		"welcome":             "Send me a SoundCloud link or use /search to find tracks.",
		"getting_info":        "Getting info...",
		"unknown":             "unknown",
		"unknown_artist":      "Unknown artist",
		"unknown_playlist":    "Unknown playlist",
		"error":               "Something went wrong",
		"canceled":            "Canceled.",
		"track":               "Track",
		"playlist":            "Playlist",
		"title":               "Title",
		"artist":              "Artist",
		"track_count":         "Tracks",
		"choose_format":       "Choose a delivery format:",
		"format_zip":          "ZIP archive",
		"format_items":        "Individual tracks",
		"cancel":              "Cancel",
		"yes":                 "Yes",
		"no":                  "No",
		"already_downloaded":  "You already downloaded this",
		"downloaded_at":       "Downloaded",
		"download_again":      "Download it again?",
		"send_link_first":     "Send me a link first.",
		"unsupported_link":    "This link is not supported.",
		"unreachable_link":    "Could not reach this link. Try again later.",
		"empty_playlist":      "This playlist has no tracks.",
		"you_in_queue":        "You are in the queue",
		"queue_position":      "Your position: %d",
		"total_in_queue":      "Waiting in total: %d",
		"will_notify_start":   "I will tell you when your download starts.",
		"congrats_first":      "It is your turn!",
		"download_started":    "Download started: %s",
		"processing":          "Processing, this can take a while...",
		"download_failed":     "Download failed.",
		"no_output":           "Nothing was downloaded.",
		"packaging_failed":    "Could not build the archive.",
		"sending_tracks":      "Sending %d tracks...",
		"track_caption":       "%s — track %d/%d",
		"all_tracks_sent":     "All tracks sent.",
		"sending_archive":     "Sending archive in %d part(s)...",
		"part_caption":        "%s — part %d/%d",
		"part_send_error":     "Failed to send part %d.",
		"part_skipped":        "Skipped %s: larger than one archive part.",
		"archive_sent":        "Archive sent (%d parts).",
		"delivery_done":       "Done: %d tracks, %s.",
		"queue_empty":         "The queue is empty and nothing is processing.",
		"processing_now":      "A download is being processed right now.",
		"status_db_ok":        "Database: OK",
		"status_db_fail":      "Database: unavailable",
		"not_in_queue":        "You are not in the queue.",
		"no_history":          "No downloads yet.",
		"history_title":       "Your latest downloads",
		"your_stats":          "Your statistics",
		"global_stats":        "Global statistics",
		"total_downloads":     "Downloads: %d",
		"total_tracks":        "Tracks: %d",
		"total_size":          "Total size: %s",
		"total_users":         "Users: %d",
		"search_placeholder":  "Type what you want to find:",
		"search_too_short":    "The query is too short, use at least 3 characters.",
		"searching":           "Searching...",
		"search_no_results":   "Nothing found for \"%s\".",
		"search_timeout":      "Search timed out, try again.",
		"search_error":        "Search failed, try again later.",
		"search_results":      "Results for \"%s\"",
		"search_page":         "Page %d/%d",
		"prev_page":           "« Back",
		"next_page":           "Next »",
		"not_admin":           "You are not allowed to do that.",
		"broadcast_usage":     "Usage: /announce your text",
		"broadcast_started":   "Broadcasting to %d users...",
		"broadcast_report":    "Broadcast finished.\nDelivered: %d\nBlocked: %d\nFailed: %d",
		"announcement_header": "ANNOUNCEMENT",
	},
	"ua": {
		"choose_language":     "Оберіть мову:",
		"language_set":        "Мову збережено.",
		"welcome":             "Надішли мені посилання на SoundCloud або скористайся /search.",
		"getting_info":        "Отримую інформацію...",
		"unknown":             "невідомо",
		"unknown_artist":      "Невідомий виконавець",
		"unknown_playlist":    "Невідомий плейлист",
		"error":               "Щось пішло не так",
		"canceled":            "Скасовано.",
		"track":               "Трек",
		"playlist":            "Плейлист",
		"title":               "Назва",
		"artist":              "Виконавець",
		"track_count":         "Треків",
		"choose_format":       "Обери формат доставки:",
		"format_zip":          "ZIP-архів",
		"format_items":        "Окремі треки",
		"cancel":              "Скасувати",
		"yes":                 "Так",
		"no":                  "Ні",
		"already_downloaded":  "Ти вже завантажував це",
		"downloaded_at":       "Завантажено",
		"download_again":      "Завантажити ще раз?",
		"send_link_first":     "Спочатку надішли посилання.",
		"unsupported_link":    "Це посилання не підтримується.",
		"unreachable_link":    "Не вдалося відкрити посилання. Спробуй пізніше.",
		"empty_playlist":      "У цьому плейлисті немає треків.",
		"you_in_queue":        "Ти в черзі",
		"queue_position":      "Твоя позиція: %d",
		"total_in_queue":      "Всього в черзі: %d",
		"will_notify_start":   "Я повідомлю, коли почнеться завантаження.",
		"congrats_first":      "Твоя черга!",
		"download_started":    "Завантаження почалося: %s",
		"processing":          "Обробка, це може зайняти час...",
		"download_failed":     "Не вдалося завантажити.",
		"no_output":           "Нічого не завантажилось.",
		"packaging_failed":    "Не вдалося створити архів.",
		"sending_tracks":      "Надсилаю %d треків...",
		"track_caption":       "%s — трек %d/%d",
		"all_tracks_sent":     "Всі треки надіслано.",
		"sending_archive":     "Надсилаю архів, частин: %d...",
		"part_caption":        "%s — частина %d/%d",
		"part_send_error":     "Не вдалося надіслати частину %d.",
		"part_skipped":        "Пропущено %s: більше за одну частину архіву.",
		"archive_sent":        "Архів надіслано (%d частин).",
		"delivery_done":       "Готово: %d треків, %s.",
		"queue_empty":         "Черга порожня, нічого не обробляється.",
		"processing_now":      "Зараз обробляється інше завантаження.",
		"status_db_ok":        "База даних: працює",
		"status_db_fail":      "База даних: недоступна",
		"not_in_queue":        "Тебе немає в черзі.",
		"no_history":          "Завантажень ще немає.",
		"history_title":       "Твої останні завантаження",
		"your_stats":          "Твоя статистика",
		"global_stats":        "Глобальна статистика",
		"total_downloads":     "Завантажень: %d",
		"total_tracks":        "Треків: %d",
		"total_size":          "Загальний розмір: %s",
		"total_users":         "Користувачів: %d",
		"search_placeholder":  "Напиши, що шукати:",
		"search_too_short":    "Запит закороткий, потрібно щонайменше 3 символи.",
		"searching":           "Шукаю...",
		"search_no_results":   "Нічого не знайдено за \"%s\".",
		"search_timeout":      "Пошук не встиг, спробуй ще раз.",
		"search_error":        "Пошук не вдався, спробуй пізніше.",
		"search_results":      "Результати за \"%s\"",
		"search_page":         "Сторінка %d/%d",
		"prev_page":           "« Назад",
		"next_page":           "Далі »",
		"not_admin":           "Недостатньо прав.",
		"broadcast_usage":     "Використання: /announce твій текст",
		"broadcast_started":   "Розсилаю %d користувачам...",
		"broadcast_report":    "Розсилку завершено.\nДоставлено: %d\nЗаблокували: %d\nПомилок: %d",
		"announcement_header": "ОГОЛОШЕННЯ",
	},
	"ru": {
		"choose_language":     "Выберите язык:",
		"language_set":        "Язык сохранён.",
		"welcome":             "Пришли мне ссылку на SoundCloud или используй /search.",
		"getting_info":        "Получаю информацию...",
		"unknown":             "неизвестно",
		"unknown_artist":      "Неизвестный исполнитель",
		"unknown_playlist":    "Неизвестный плейлист",
		"error":               "Что-то пошло не так",
		"canceled":            "Отменено.",
		"track":               "Трек",
		"playlist":            "Плейлист",
		"title":               "Название",
		"artist":              "Исполнитель",
		"track_count":         "Треков",
		"choose_format":       "Выбери формат доставки:",
		"format_zip":          "ZIP-архив",
		"format_items":        "Отдельные треки",
		"cancel":              "Отмена",
		"yes":                 "Да",
		"no":                  "Нет",
		"already_downloaded":  "Ты уже скачивал это",
		"downloaded_at":       "Скачано",
		"download_again":      "Скачать ещё раз?",
		"send_link_first":     "Сначала пришли ссылку.",
		"unsupported_link":    "Эта ссылка не поддерживается.",
		"unreachable_link":    "Не удалось открыть ссылку. Попробуй позже.",
		"empty_playlist":      "В этом плейлисте нет треков.",
		"you_in_queue":        "Ты в очереди",
		"queue_position":      "Твоя позиция: %d",
		"total_in_queue":      "Всего в очереди: %d",
		"will_notify_start":   "Я сообщу, когда начнётся загрузка.",
		"congrats_first":      "Твоя очередь!",
		"download_started":    "Загрузка началась: %s",
		"processing":          "Обработка, это может занять время...",
		"download_failed":     "Не удалось скачать.",
		"no_output":           "Ничего не скачалось.",
		"packaging_failed":    "Не удалось создать архив.",
		"sending_tracks":      "Отправляю %d треков...",
		"track_caption":       "%s — трек %d/%d",
		"all_tracks_sent":     "Все треки отправлены.",
		"sending_archive":     "Отправляю архив, частей: %d...",
		"part_caption":        "%s — часть %d/%d",
		"part_send_error":     "Не удалось отправить часть %d.",
		"part_skipped":        "Пропущен %s: больше одной части архива.",
		"archive_sent":        "Архив отправлен (%d частей).",
		"delivery_done":       "Готово: %d треков, %s.",
		"queue_empty":         "Очередь пуста, ничего не обрабатывается.",
		"processing_now":      "Сейчас обрабатывается другая загрузка.",
		"status_db_ok":        "База данных: работает",
		"status_db_fail":      "База данных: недоступна",
		"not_in_queue":        "Тебя нет в очереди.",
		"no_history":          "Загрузок ещё нет.",
		"history_title":       "Твои последние загрузки",
		"your_stats":          "Твоя статистика",
		"global_stats":        "Глобальная статистика",
		"total_downloads":     "Загрузок: %d",
		"total_tracks":        "Треков: %d",
		"total_size":          "Общий размер: %s",
		"total_users":         "Пользователей: %d",
		"search_placeholder":  "Напиши, что искать:",
		"search_too_short":    "Запрос слишком короткий, нужно минимум 3 символа.",
		"searching":           "Ищу...",
		"search_no_results":   "Ничего не найдено по \"%s\".",
		"search_timeout":      "Поиск не успел, попробуй ещё раз.",
		"search_error":        "Поиск не удался, попробуй позже.",
		"search_results":      "Результаты по \"%s\"",
		"search_page":         "Страница %d/%d",
		"prev_page":           "« Назад",
		"next_page":           "Далее »",
		"not_admin":           "Недостаточно прав.",
		"broadcast_usage":     "Использование: /announce твой текст",
		"broadcast_started":   "Рассылаю %d пользователям...",
		"broadcast_report":    "Рассылка завершена.\nДоставлено: %d\nЗаблокировали: %d\nОшибок: %d",
		"announcement_header": "ОБЪЯВЛЕНИЕ",
	},
}
