package linear

import (
	"math/rand"
	"testing"

	"github.com/YuminosukeSato/mlkit/pkg/log"
)

// createBenchmarkData はベンチマーク用のデータを生成する
func createBenchmarkData(rows, cols int) ([][]float64, []float64) {
	// シードを固定して再現性を確保
	rng := rand.New(rand.NewSource(42))

	// 真の重みベクトルを生成
	trueWeights := make([]float64, cols)
	for j := range trueWeights {
		trueWeights[j] = float64(j+1) * 0.5
	}

	X := make([][]float64, rows)
	y := make([]float64, rows)
	for i := range X {
		X[i] = make([]float64, cols)
		sum := 1.0 // 切片
		for j := range X[i] {
			// -1.0 から 1.0 の範囲のランダムな値
			X[i][j] = rng.Float64()*2.0 - 1.0
			sum += X[i][j] * trueWeights[j]
		}
		// 小さなノイズを追加
		y[i] = sum + (rng.Float64()-0.5)*0.1
	}
	return X, y
}

var benchSizes = []struct {
	name string
	rows int
	cols int
}{
	{"Small_100x5", 100, 5},
	{"Medium_1000x10", 1000, 10},
	{"Large_5000x20", 5000, 20},
}

// BenchmarkLinearRegressionFit は正規方程式のベンチマーク
func BenchmarkLinearRegressionFit(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(size.name, func(b *testing.B) {
			X, y := createBenchmarkData(size.rows, size.cols)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				lr := NewLinearRegression()
				if err := lr.Fit(X, y); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkGradientDescentFit は勾配降下法のベンチマーク（反復回数固定）
func BenchmarkGradientDescentFit(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(size.name, func(b *testing.B) {
			X, y := createBenchmarkData(size.rows, size.cols)
			logger, _ := log.NewTestLogger(log.LevelError)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				gd := NewGradientDescent(
					WithAlpha(0.1),
					WithPrecision(0),
					WithMaxIter(100),
					WithLogger(logger),
				)
				if err := gd.Fit(X, y); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkGradientDescentSaveError は誤差履歴と予測線の保存込みのベンチマーク
func BenchmarkGradientDescentSaveError(b *testing.B) {
	X, y := createBenchmarkData(1000, 10)
	logger, _ := log.NewTestLogger(log.LevelError)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		gd := NewGradientDescent(
			WithAlpha(0.1),
			WithPrecision(0),
			WithMaxIter(100),
			WithSaveError(true),
			WithPredictionLineGap(10),
			WithLogger(logger),
		)
		if err := gd.Fit(X, y); err != nil {
			b.Fatal(err)
		}
	}
}
