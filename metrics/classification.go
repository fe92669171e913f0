package metrics

import (
	"gonum.org/v1/gonum/mat"
)

// Accuracy はクラスラベル（インデックス）の一致率を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// HammingLoss は0/1ラベルの不一致率を計算する。予測値は0.5で二値化する。
func HammingLoss(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("HammingLoss", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	wrong := 0
	for i := 0; i < n; i++ {
		predicted := 0.0
		if yPred.AtVec(i) >= 0.5 {
			predicted = 1
		}
		if predicted != yTrue.AtVec(i) {
			wrong++
		}
	}
	return float64(wrong) / float64(n), nil
}
