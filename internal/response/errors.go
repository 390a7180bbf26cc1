package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden       ErrCode = "FORBIDDEN"
	ErrAdminAccessOnly ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrQuestionRules  ErrCode = "QUESTION_RULES_VIOLATED"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Quiz session ──────────────────────────────────────────────────
	ErrRegistrationRequired ErrCode = "REGISTRATION_REQUIRED"
	ErrSessionActive        ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionNotInProgress ErrCode = "SESSION_NOT_IN_PROGRESS"
	ErrConfirmationRequired ErrCode = "CONFIRMATION_REQUIRED"
	ErrNoQuestions          ErrCode = "NO_QUESTIONS"
	ErrLoadFailed           ErrCode = "LOAD_FAILED"
	ErrCheaterFlagged       ErrCode = "CHEATER_FLAGGED"
	ErrResultNotFound       ErrCode = "RESULT_NOT_FOUND"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal           ErrCode = "INTERNAL_ERROR"
	ErrBackendUnavailable ErrCode = "BACKEND_UNAVAILABLE"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email atau kata sandi salah."
	case ErrTokenRequired:
		return "Token autentikasi diperlukan."
	case ErrTokenInvalid:
		return "Token autentikasi tidak valid."
	case ErrTokenExpired:
		return "Token autentikasi telah kedaluwarsa."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "Anda tidak memiliki izin untuk mengakses sumber daya ini."
	case ErrAdminAccessOnly:
		return "Sumber daya ini terbatas untuk administrator."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validasi gagal. Silakan periksa masukan Anda."
	case ErrInvalidID:
		return "Format ID tidak valid."
	case ErrInvalidPayload:
		return "Payload permintaan tidak valid."
	case ErrQuestionRules:
		return "Soal tidak memenuhi aturan penyuntingan."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Sumber daya tidak ditemukan."
	case ErrConflict:
		return "Sumber daya sudah ada."

	// ─── Quiz session ──────────────────────────────────────────────────
	case ErrRegistrationRequired:
		return "Silakan daftar terlebih dahulu sebelum memulai kuis."
	case ErrSessionActive:
		return "Kuis untuk nomor induk ini sedang berlangsung."
	case ErrSessionNotInProgress:
		return "Kuis tidak sedang berlangsung."
	case ErrConfirmationRequired:
		return "Pengumpulan jawaban perlu dikonfirmasi."
	case ErrNoQuestions:
		return "Kategori ini tidak memiliki soal."
	case ErrLoadFailed:
		return "Gagal memuat soal kuis."
	case ErrCheaterFlagged:
		return "Nomor induk ini ditandai melakukan kecurangan."
	case ErrResultNotFound:
		return "Hasil kuis tidak ditemukan."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Terlalu banyak permintaan. Silakan coba lagi nanti."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Terjadi kesalahan server internal."
	case ErrBackendUnavailable:
		return "Layanan kuis sedang tidak tersedia."
	default:
		return "Terjadi kesalahan yang tidak terduga."
	}
}
