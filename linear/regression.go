package linear

import (
	"github.com/YuminosukeSato/mlkit/core/model"
	"github.com/YuminosukeSato/mlkit/metrics"
	"github.com/YuminosukeSato/mlkit/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// LinearRegression は正規方程式による線形回帰モデル
// 勾配降下法の結果と比較するための閉形式解として使う
type LinearRegression struct {
	model.BaseEstimator // BaseEstimatorを埋め込み
	Weights   []float64 // 重み（係数）
	Intercept float64   // 切片
	NFeatures int       // 特徴量の数
}

// NewLinearRegression は新しい線形回帰モデルを作成する
func NewLinearRegression() *LinearRegression {
	return &LinearRegression{}
}

// Fit はモデルを訓練データで学習させる
// 正規方程式 w = (X^T * X)^(-1) * X^T * y を使用
func (lr *LinearRegression) Fit(X [][]float64, y []float64) error {
	// 入力の検証
	r := len(X)
	if r == 0 || len(X[0]) == 0 {
		return errors.NewModelError("LinearRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	c := len(X[0])
	if len(y) != r {
		return errors.NewDimensionError("LinearRegression.Fit", r, len(y), 0)
	}

	// 切片項のために X に 1 の列を追加
	// X_with_intercept = [1, X]
	A := mat.NewDense(r, c+1, nil)
	for i, row := range X {
		if len(row) != c {
			return errors.NewDimensionError("LinearRegression.Fit", c, len(row), 1)
		}
		A.Set(i, 0, 1.0)
		for j, v := range row {
			A.Set(i, j+1, v)
		}
	}

	// (X^T * X)^(-1) を計算
	var XTX mat.Dense
	XTX.Mul(A.T(), A)
	var XTXInv mat.Dense
	if err := XTXInv.Inverse(&XTX); err != nil {
		return errors.NewModelError("LinearRegression.Fit", "singular matrix", errors.ErrSingularMatrix)
	}

	// X^T * y を計算
	var XTy mat.VecDense
	XTy.MulVec(A.T(), mat.NewVecDense(r, append([]float64(nil), y...)))

	// 重みを計算: (X^T * X)^(-1) * X^T * y
	var w mat.VecDense
	w.MulVec(&XTXInv, &XTy)

	// 切片と重みを分離
	lr.Intercept = w.AtVec(0)
	lr.Weights = make([]float64, c)
	for j := range lr.Weights {
		lr.Weights[j] = w.AtVec(j + 1)
	}
	lr.NFeatures = c
	lr.SetFitted()
	return nil
}

// PredictValues は入力データに対する予測を行う
func (lr *LinearRegression) PredictValues(X [][]float64) ([]float64, error) {
	if err := lr.RequireFitted("LinearRegression", "PredictValues"); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	for i, row := range X {
		if len(row) != lr.NFeatures {
			return nil, errors.NewDimensionError("LinearRegression.PredictValues", lr.NFeatures, len(row), 1)
		}
		// 予測: y = X * weights + intercept
		pred := lr.Intercept
		for j, v := range row {
			pred += v * lr.Weights[j]
		}
		out[i] = pred
	}
	return out, nil
}

// Theta は切片と重みを勾配降下法と同じ並び [θ0, θ1, ...] で返す
func (lr *LinearRegression) Theta() []float64 {
	if !lr.IsFitted() {
		return nil
	}
	return append([]float64{lr.Intercept}, lr.Weights...)
}

// Score はモデルの決定係数（R²）を計算する
func (lr *LinearRegression) Score(X [][]float64, y []float64) (float64, error) {
	yPred, err := lr.PredictValues(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(y, yPred)
}
