package rag

import "errors"

// 索引相关错误
var (
	// ErrIndexNotFound 索引文件缺失（课程尚未建立索引）
	ErrIndexNotFound = errors.New("index not found, build the index first")
	// ErrIndexIncompatible 索引维度与当前 Embedding 服务维度不一致
	// 出现时必须整体重建，禁止截断或补零
	ErrIndexIncompatible = errors.New("index dimension incompatible with embedding provider")
	// ErrIndexCorrupt 向量数量与元数据数量不一致
	ErrIndexCorrupt = errors.New("index corrupt: vector count does not match sidecar")
	// ErrDimensionMismatch 查询向量维度与索引不一致
	ErrDimensionMismatch = errors.New("query embedding dimension does not match index")
	// ErrEmptyIndex 空索引不允许持久化
	ErrEmptyIndex = errors.New("index has no vectors")
)
