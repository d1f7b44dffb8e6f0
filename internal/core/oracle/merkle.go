package oracle

import (
	"fmt"

	"github.com/priceshield/v1/internal/core/commitment"
	"github.com/priceshield/v1/internal/core/encoding"
)

// VerifyMerkleProof 本地复算Merkle路径
//
// 预言机是半信任的：即使证明来自预言机本身，提交理赔前也必须
// 复算路径确认 leaf 沿 siblings/pathIndices 折叠后等于 root。
// 复算使用与建树一致的Poseidon2哈希。
func (c *Client) VerifyMerkleProof(proof *MerkleProof) (bool, error) {
	if err := proof.Validate(); err != nil {
		return false, err
	}

	node, err := encoding.ParseField(proof.Leaf)
	if err != nil {
		return false, fmt.Errorf("解析leaf失败: %w", err)
	}
	root, err := encoding.ParseField(proof.Root)
	if err != nil {
		return false, fmt.Errorf("解析root失败: %w", err)
	}

	for i, siblingStr := range proof.Siblings {
		sibling, err := encoding.ParseField(siblingStr)
		if err != nil {
			return false, fmt.Errorf("解析第%d个sibling失败: %w", i, err)
		}

		// pathIndex=0 表示当前节点在左侧，=1 表示在右侧
		if proof.PathIndices[i] == 0 {
			node = commitment.HashPair(node, sibling)
		} else {
			node = commitment.HashPair(sibling, node)
		}
	}

	return node.Cmp(root) == 0, nil
}
