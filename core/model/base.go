package model

import (
	"sync/atomic"

	"github.com/YuminosukeSato/forestrank/pkg/errors"
)

// EstimatorState はモデルの学習状態を表す
type EstimatorState int32

const (
	// NotFitted はモデルが未学習の状態
	NotFitted EstimatorState = iota
	// Fitted はモデルが学習済みの状態
	Fitted
)

// BaseEstimator はフォレストなど学習結果を持つ型に埋め込む基底構造体。
// 状態は原子的に読み書きされるため、予測側のゴルーチンからも安全に参照できる。
type BaseEstimator struct {
	state atomic.Int32
}

// IsFitted はモデルが学習済みかどうかを返す
func (e *BaseEstimator) IsFitted() bool {
	return EstimatorState(e.state.Load()) == Fitted
}

// SetFitted はモデルを学習済み状態に設定する
func (e *BaseEstimator) SetFitted() {
	e.state.Store(int32(Fitted))
}

// Reset はモデルを初期状態にリセットする
func (e *BaseEstimator) Reset() {
	e.state.Store(int32(NotFitted))
}

// RequireFitted は未学習の場合にNotFittedErrorを返す
func (e *BaseEstimator) RequireFitted(modelName, method string) error {
	if !e.IsFitted() {
		return errors.NewNotFittedError(modelName, method)
	}
	return nil
}
