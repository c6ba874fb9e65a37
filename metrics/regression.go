package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/mlkit/pkg/errors"
)

// MSE は平均二乗誤差（Mean Squared Error）を計算する
// MSE = (1/n) * Σ(yTrue - yPred)²
func MSE(yTrue, yPred []float64) (float64, error) {
	sq, err := sumSquares("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return sq / float64(len(yTrue)), nil
}

// HalfMSE は勾配降下法のコスト関数 Σ(yTrue - yPred)² / 2n を計算する
func HalfMSE(yTrue, yPred []float64) (float64, error) {
	sq, err := sumSquares("HalfMSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return sq / (2 * float64(len(yTrue))), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred []float64) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred []float64) (float64, error) {
	if err := checkPair("MAE", yTrue, yPred); err != nil {
		return 0, err
	}
	return floats.Distance(yTrue, yPred, 1) / float64(len(yTrue)), nil
}

// R2Score は決定係数（R²）を計算する
func R2Score(yTrue, yPred []float64) (float64, error) {
	rss, err := sumSquares("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	// 全変動が0の場合（すべてのyTrueが同じ値）
	tss := stat.Variance(yTrue, nil) * float64(len(yTrue)-1)
	if len(yTrue) < 2 || tss == 0 {
		return 0, errors.Newf("R2Score: total sum of squares is zero (no variance in yTrue)")
	}
	return 1 - rss/tss, nil
}

func sumSquares(op string, yTrue, yPred []float64) (float64, error) {
	if err := checkPair(op, yTrue, yPred); err != nil {
		return 0, err
	}
	d := floats.Distance(yTrue, yPred, 2)
	return d * d, nil
}

func checkPair(op string, yTrue, yPred []float64) error {
	if len(yTrue) == 0 {
		return errors.NewValueError(op, "empty vector")
	}
	if len(yPred) != len(yTrue) {
		return errors.NewDimensionError(op, len(yTrue), len(yPred), 0)
	}
	return nil
}
