package errors

import (
	"errors"
	"fmt"
)

// ErrRendererUnavailable 主渲染器不可用（软失败：调用方静默切换到打印版 HTML）
var ErrRendererUnavailable = errors.New("PDF 渲染器不可用")

// ValidationError 复合键必填字段缺失等校验失败。操作中止，不产生部分写入。
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidation 创建 ValidationError
func NewValidation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// StorageError 存储后端不可用或写入失败，保留后端原始错误信息
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("存储操作 %s 失败", e.Op)
	}
	return fmt.Sprintf("存储操作 %s 失败: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// WrapStorage 将后端错误包装为 StorageError；err 为 nil 时返回 nil
func WrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// ImportFormatError 上传文件扩展名不被接受，文件内容未被读取
type ImportFormatError struct {
	FileName string
}

func (e *ImportFormatError) Error() string {
	return fmt.Sprintf("仅支持 .xlsx/.xls 文件: %s", e.FileName)
}

// IsValidation 判断是否为 ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsStorage 判断是否为 StorageError
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// IsImportFormat 判断是否为 ImportFormatError
func IsImportFormat(err error) bool {
	var fe *ImportFormatError
	return errors.As(err, &fe)
}
