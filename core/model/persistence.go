package model

import (
	"encoding/gob"
	"io"
	"os"

	mlerrors "github.com/YuminosukeSato/mlkit/pkg/errors"
)

// SaveModel はモデルをファイルに保存する
//
// 使用例:
//
//	tree, _ := id3.Fit(train)
//	err := model.SaveModel(tree, "tree.gob")
func SaveModel(model interface{}, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return mlerrors.Wrapf(err, "failed to create %s", filename)
	}
	defer file.Close()

	return SaveModelToWriter(model, file)
}

// LoadModel はファイルからモデルを読み込む
// model には読み込み先のポインタを渡す
func LoadModel(model interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return mlerrors.Wrapf(err, "failed to open %s", filename)
	}
	defer file.Close()

	return LoadModelFromReader(model, file)
}

// SaveModelToWriter はモデルをio.Writerに保存する
func SaveModelToWriter(model interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(model); err != nil {
		return mlerrors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModelFromReader はio.Readerからモデルを読み込む
func LoadModelFromReader(model interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(model); err != nil {
		return mlerrors.Wrap(err, "failed to decode model")
	}
	return nil
}
