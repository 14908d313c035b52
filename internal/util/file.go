package util

import (
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// 题库表格一般只有几百行，超过这个大小直接拒绝
const MaxWorkbookSize = 8 << 20

var (
	ErrUnsupportedFile = errors.New("only .xlsx workbooks are supported")
	ErrFileTooLarge    = errors.New("workbook is too large")
)

// OpenWorkbookUpload 校验扩展名、大小和文件头 (xlsx 是 zip 容器)，返回已回到开头的文件
func OpenWorkbookUpload(fh *multipart.FileHeader) (multipart.File, error) {
	if strings.ToLower(filepath.Ext(fh.Filename)) != ".xlsx" {
		return nil, ErrUnsupportedFile
	}
	if fh.Size > MaxWorkbookSize {
		return nil, ErrFileTooLarge
	}

	file, err := fh.Open()
	if err != nil {
		return nil, errors.Wrap(err, "open upload")
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		file.Close()
		return nil, errors.Wrap(err, "read upload")
	}
	if mime := http.DetectContentType(head[:n]); mime != "application/zip" {
		file.Close()
		return nil, errors.Wrap(ErrUnsupportedFile, mime)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, errors.Wrap(err, "rewind upload")
	}
	return file, nil
}
