// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, board, project, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeDuplicateLoginID   = "DUPLICATE_LOGIN_ID"
	ErrCodeInvalidToken       = "INVALID_TOKEN"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodePostNotFound       = "POST_NOT_FOUND"
	ErrCodeCommentNotFound    = "COMMENT_NOT_FOUND"
	ErrCodeProjectNotFound    = "PROJECT_NOT_FOUND"
	ErrCodeNotAuthor          = "NOT_AUTHOR"
	ErrCodeAlreadyScrapped    = "ALREADY_SCRAPPED"
	ErrCodeScrapNotFound      = "SCRAP_NOT_FOUND"
	ErrCodeAlreadyApplied     = "ALREADY_APPLIED"
	ErrCodeRecruitClosed      = "RECRUIT_CLOSED"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeInvalidURL         = "INVALID_URL"
	ErrCodeSSRFBlocked        = "SSRF_BLOCKED"
)

// NewUnauthorizedError は認証必須エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "IDまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewDuplicateLoginIDError はID重複エラーを生成する。
func NewDuplicateLoginIDError(loginID string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateLoginID,
		Message:  fmt.Sprintf("このIDは既に使用されています: %s", loginID),
		Category: "validation",
		Action:   "別のIDを入力してください。",
	}
}

// NewInvalidTokenError はトークン無効エラーを生成する。
// 期限切れトークンと不正トークンの両方に使用する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "トークンが無効または期限切れです。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewPostNotFoundError は投稿未検出エラーを生成する。
func NewPostNotFoundError(postID string) *APIError {
	return &APIError{
		Code:     ErrCodePostNotFound,
		Message:  fmt.Sprintf("指定された投稿が見つかりません: %s", postID),
		Category: "board",
		Action:   "投稿IDを確認してください。",
	}
}

// NewCommentNotFoundError はコメント未検出エラーを生成する。
func NewCommentNotFoundError(commentID string) *APIError {
	return &APIError{
		Code:     ErrCodeCommentNotFound,
		Message:  fmt.Sprintf("指定されたコメントが見つかりません: %s", commentID),
		Category: "board",
		Action:   "コメントIDを確認してください。",
	}
}

// NewProjectNotFoundError はプロジェクト未検出エラーを生成する。
func NewProjectNotFoundError(projectID string) *APIError {
	return &APIError{
		Code:     ErrCodeProjectNotFound,
		Message:  fmt.Sprintf("指定されたプロジェクトが見つかりません: %s", projectID),
		Category: "project",
		Action:   "プロジェクトIDを確認してください。",
	}
}

// NewNotAuthorError は作成者以外による編集・削除エラーを生成する。
func NewNotAuthorError() *APIError {
	return &APIError{
		Code:     ErrCodeNotAuthor,
		Message:  "この操作は作成者のみ実行できます。",
		Category: "auth",
		Action:   "自分が作成したコンテンツのみ編集・削除できます。",
	}
}

// NewAlreadyScrappedError はスクラップ重複エラーを生成する。
func NewAlreadyScrappedError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyScrapped,
		Message:  "この投稿は既にスクラップしています。",
		Category: "board",
		Action:   "スクラップ一覧から該当投稿を確認してください。",
	}
}

// NewScrapNotFoundError はスクラップ未検出エラーを生成する。
func NewScrapNotFoundError(postID string) *APIError {
	return &APIError{
		Code:     ErrCodeScrapNotFound,
		Message:  fmt.Sprintf("この投稿はスクラップされていません: %s", postID),
		Category: "board",
		Action:   "スクラップ済みの投稿のみ解除できます。",
	}
}

// NewAlreadyAppliedError は応募重複エラーを生成する。
func NewAlreadyAppliedError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyApplied,
		Message:  "このプロジェクトには既に応募しています。",
		Category: "project",
		Action:   "応募状況はマイページから確認してください。",
	}
}

// NewRecruitClosedError は募集終了済みプロジェクトへの応募エラーを生成する。
func NewRecruitClosedError() *APIError {
	return &APIError{
		Code:     ErrCodeRecruitClosed,
		Message:  "このプロジェクトの募集は終了しています。",
		Category: "project",
		Action:   "募集中のプロジェクトから探してください。",
	}
}

// NewValidationFailedError は入力検証エラーを生成する。
func NewValidationFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("入力内容に誤りがあります: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("無効なURLです: %s", reason),
		Category: "validation",
		Action:   "正しいURL形式（http:// または https:// で始まるURL）を入力してください。",
	}
}

// NewSSRFBlockedError はSSRFブロックエラーを生成する。
func NewSSRFBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeSSRFBlocked,
		Message:  "セキュリティポリシーにより、指定されたURLへのアクセスがブロックされました。",
		Category: "validation",
		Action:   "公開されているWebサイトのURLを入力してください。ローカルネットワークやプライベートIPへのアクセスは許可されていません。",
	}
}
