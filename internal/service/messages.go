package service

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys for engine-generated text. The English key doubles as the
// English translation.
const (
	msgRenameFailed      = "Error renaming file"
	msgSubmitFailed      = "Error submitting batch"
	msgDeleteAllFailed   = "Error deleting files"
	msgDeletePhotoFailed = "Error deleting photo"
	msgRefreshFailed     = "Error refreshing photo list"
	msgManifestTitle     = "Scan list"
	msgManifestName      = "Name"
)

func init() {
	he := language.Hebrew
	message.SetString(he, msgRenameFailed, "שגיאה בשינוי שם הקובץ")
	message.SetString(he, msgSubmitFailed, "שגיאה בשליחה")
	message.SetString(he, msgDeleteAllFailed, "שגיאה במחיקת קבצים")
	message.SetString(he, msgDeletePhotoFailed, "שגיאה במחיקת תמונה")
	message.SetString(he, msgRefreshFailed, "שגיאה ברענון רשימת הסריקות")
	message.SetString(he, msgManifestTitle, "רשימת סריקות")
	message.SetString(he, msgManifestName, "שם")
}

// newPrinter returns a printer for lang, falling back to English for empty
// or unparseable tags.
func newPrinter(lang string) *message.Printer {
	tag, err := language.Parse(lang)
	if lang == "" || err != nil {
		tag = language.English
	}
	return message.NewPrinter(tag)
}
