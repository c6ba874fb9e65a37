// Package model defines the capabilities shared by mlkit estimators and
// the fitted-state bookkeeping they embed.
package model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mlkit/core/dataset"
	"github.com/YuminosukeSato/mlkit/metrics"
)

// Classifier is a supervised model evaluated on a fixed train/test pair.
// The target attribute is the last column of both datasets.
type Classifier interface {
	// Name identifies the algorithm in logs and reports.
	Name() string

	// Evaluate fits on train, classifies every row of test and returns the
	// calculated confusion matrix. Rows the model declines to label are
	// counted as unclassified.
	Evaluate(train, test *dataset.Dataset) (*metrics.ConfusionMatrix, error)
}

// Clusterer is an unsupervised model that assigns a cluster id to each row.
type Clusterer interface {
	// FitPredict clusters X and returns one label per row. DBSCAN noise is -1.
	FitPredict(X [][]float64) ([]int, error)
}

// Regressor predicts a continuous target.
type Regressor interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X [][]float64, y []float64) error

	// PredictValues は入力データに対する予測値を返す
	PredictValues(X [][]float64) ([]float64, error)
}

// Transformer はデータ変換のインターフェース
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform はデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}
