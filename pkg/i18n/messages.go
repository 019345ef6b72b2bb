package i18n

import (
	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	pkgerrors "github.com/emlakhub/emlakhub-backend/pkg/errors"
)

var errorTranslations = map[pkgerrors.Code]map[enums.Locale]string{
	pkgerrors.CodeValidation: {
		enums.LocaleEnglish: "Some of the information you entered is not valid.",
		enums.LocaleArabic:  "بعض المعلومات التي أدخلتها غير صالحة.",
		enums.LocaleTurkish: "Girdiğiniz bilgilerin bir kısmı geçerli değil.",
	},
	pkgerrors.CodeUnauthorized: {
		enums.LocaleEnglish: "Please sign in to continue.",
		enums.LocaleArabic:  "يرجى تسجيل الدخول للمتابعة.",
		enums.LocaleTurkish: "Devam etmek için lütfen giriş yapın.",
	},
	pkgerrors.CodeForbidden: {
		enums.LocaleEnglish: "You are not allowed to do this.",
		enums.LocaleArabic:  "غير مسموح لك بالقيام بذلك.",
		enums.LocaleTurkish: "Bu işlemi yapma yetkiniz yok.",
	},
	pkgerrors.CodeNotFound: {
		enums.LocaleEnglish: "We could not find what you were looking for.",
		enums.LocaleArabic:  "لم نتمكن من العثور على ما تبحث عنه.",
		enums.LocaleTurkish: "Aradığınızı bulamadık.",
	},
	pkgerrors.CodeConflict: {
		enums.LocaleEnglish: "This request conflicts with an existing record.",
		enums.LocaleArabic:  "يتعارض هذا الطلب مع سجل موجود.",
		enums.LocaleTurkish: "Bu istek mevcut bir kayıtla çakışıyor.",
	},
	pkgerrors.CodeStateConflict: {
		enums.LocaleEnglish: "The listing changed in the meantime. Refresh and try again.",
		enums.LocaleArabic:  "تم تغيير الإعلان في هذه الأثناء. يرجى التحديث والمحاولة مرة أخرى.",
		enums.LocaleTurkish: "İlan bu arada değişti. Sayfayı yenileyip tekrar deneyin.",
	},
	pkgerrors.CodeAdminLock: {
		enums.LocaleEnglish: "This listing was hidden by an administrator and cannot be changed until it is reviewed.",
		enums.LocaleArabic:  "تم إخفاء هذا الإعلان من قبل المسؤول ولا يمكن تغييره حتى تتم مراجعته.",
		enums.LocaleTurkish: "Bu ilan bir yönetici tarafından gizlendi ve incelenene kadar değiştirilemez.",
	},
	pkgerrors.CodeIdempotency: {
		enums.LocaleEnglish: "This request was already submitted.",
		enums.LocaleArabic:  "تم إرسال هذا الطلب مسبقًا.",
		enums.LocaleTurkish: "Bu istek zaten gönderildi.",
	},
	pkgerrors.CodeRateLimit: {
		enums.LocaleEnglish: "Too many requests. Please wait a moment and try again.",
		enums.LocaleArabic:  "طلبات كثيرة جدًا. يرجى الانتظار قليلاً والمحاولة مرة أخرى.",
		enums.LocaleTurkish: "Çok fazla istek. Lütfen biraz bekleyip tekrar deneyin.",
	},
	pkgerrors.CodeInternal: {
		enums.LocaleEnglish: "Something went wrong on our side.",
		enums.LocaleArabic:  "حدث خطأ من جانبنا.",
		enums.LocaleTurkish: "Bizim tarafımızda bir sorun oluştu.",
	},
	pkgerrors.CodeDependency: {
		enums.LocaleEnglish: "The service is temporarily unavailable. Please try again.",
		enums.LocaleArabic:  "الخدمة غير متاحة مؤقتًا. يرجى المحاولة مرة أخرى.",
		enums.LocaleTurkish: "Hizmet geçici olarak kullanılamıyor. Lütfen tekrar deneyin.",
	},
}
