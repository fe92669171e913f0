// Package errors はforestrank全体のエラーハンドリングと警告システムを提供します。
// 型付きエラーはすべてスタックトレースを保持し、zerologへ構造化して出力できます。
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("forestrank-Warning: %v\n", w)
	}
	// pkg/logからSetupLogger時に設定される（循環importを避けるため）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler は警告ハンドラを設定します。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します。nilを渡すと解除されます。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが設定されている場合は構造化ログとして出力し、そうでなければハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// ConfigAdjustedWarning は実行設定が自動的に補正された場合の警告です。
// 例えば、permutationランキングが要求されたがOOB推定が無効だった場合など。
type ConfigAdjustedWarning struct {
	Setting string
	From    interface{}
	To      interface{}
	Reason  string
}

func (w *ConfigAdjustedWarning) Error() string {
	return fmt.Sprintf("setting %s adjusted from %v to %v: %s", w.Setting, w.From, w.To, w.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *ConfigAdjustedWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("setting", w.Setting).
		Interface("from", w.From).
		Interface("to", w.To).
		Str("reason", w.Reason).
		Str("type", "ConfigAdjustedWarning")
}

// NewConfigAdjustedWarning は新しいConfigAdjustedWarningを作成します。
func NewConfigAdjustedWarning(setting string, from, to interface{}, reason string) *ConfigAdjustedWarning {
	return &ConfigAdjustedWarning{Setting: setting, From: from, To: to, Reason: reason}
}

// UndefinedMetricWarning は評価指標が計算できない場合に発生する警告です。
// 例えば、OOBタプルが一つもないバッグで誤差を計算した場合など。
type UndefinedMetricWarning struct {
	Metric    string
	Condition string
	Result    float64 // この条件で返される値
}

func (w *UndefinedMetricWarning) Error() string {
	return fmt.Sprintf("'%s' is ill-defined and being set to %f due to %s.", w.Metric, w.Result, w.Condition)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *UndefinedMetricWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("metric", w.Metric).
		Str("condition", w.Condition).
		Float64("result", w.Result).
		Str("type", "UndefinedMetricWarning")
}

// NewUndefinedMetricWarning は新しいUndefinedMetricWarningを作成します。
func NewUndefinedMetricWarning(metric, condition string, result float64) *UndefinedMetricWarning {
	return &UndefinedMetricWarning{Metric: metric, Condition: condition, Result: result}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// UnknownAttributeKindError は距離計算などで未対応の属性種別に遭遇した場合のエラーです。
// 実行中のランキングまたは誘導処理は中断されます。
type UnknownAttributeKindError struct {
	Op        string
	Attribute string
	Kind      int
}

func (e *UnknownAttributeKindError) Error() string {
	return fmt.Sprintf("forestrank: %s: attribute %q has unsupported kind %d", e.Op, e.Attribute, e.Kind)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *UnknownAttributeKindError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("attribute", e.Attribute).
		Int("kind", e.Kind).
		Str("type", "UnknownAttributeKindError")
}

// NewUnknownAttributeKindError は新しいUnknownAttributeKindErrorを作成し、スタックトレースを付与します。
func NewUnknownAttributeKindError(op, attribute string, kind int) error {
	return errors.WithStack(&UnknownAttributeKindError{Op: op, Attribute: attribute, Kind: kind})
}

// SeriesLengthError は等長の時系列を要求する距離尺度に長さの異なる系列が渡された場合のエラーです。
type SeriesLengthError struct {
	Measure string
	Left    int
	Right   int
}

func (e *SeriesLengthError) Error() string {
	return fmt.Sprintf("forestrank: %s distance requires equal-length series, got %d and %d", e.Measure, e.Left, e.Right)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *SeriesLengthError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("measure", e.Measure).
		Int("left", e.Left).
		Int("right", e.Right).
		Str("type", "SeriesLengthError")
}

// NewSeriesLengthError は新しいSeriesLengthErrorを作成し、スタックトレースを付与します。
func NewSeriesLengthError(measure string, left, right int) error {
	return errors.WithStack(&SeriesLengthError{Measure: measure, Left: left, Right: right})
}

// BagError はバッグ単位の学習タスクが失敗した場合のエラーです。
// 1つでもバッグが失敗すると誘導全体が失敗します。
type BagError struct {
	Bag int
	Err error
}

func (e *BagError) Error() string {
	return fmt.Sprintf("forestrank: bag %d: %v", e.Bag, e.Err)
}

func (e *BagError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *BagError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("bag", e.Bag).
		AnErr("cause", e.Err).
		Str("type", "BagError")
}

// NewBagError は新しいBagErrorを作成し、スタックトレースを付与します。
func NewBagError(bag int, err error) error {
	return errors.WithStack(&BagError{Bag: bag, Err: err})
}

// NotFittedError は未学習のモデルで予測を呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("forestrank: %s: this model is not fitted yet. Call %s only after induction", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/attributes
}

func (e *DimensionError) Error() string {
	axisName := "attributes"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("forestrank: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValidationError は設定値の検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("forestrank: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// ValueError は引数の値が不適切な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("forestrank: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ModelError はモデルの誘導・予測に関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("forestrank: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("forestrank: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrNoOOBTuples はバッグにOOBタプルが存在しない場合のエラーです。
	ErrNoOOBTuples = New("no out-of-bag tuples")
)
