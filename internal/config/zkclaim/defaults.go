package zkclaim

import (
	"github.com/priceshield/v1/pkg/utils"
)

// 理赔证明默认配置值

// getDefaultArtifactDir 获取默认电路工件目录
// 原因：Groth16工件体积较大且与电路深度绑定，统一目录便于缓存和分发
func getDefaultArtifactDir() string {
	return utils.ResolveDataPath("./data/zkclaim")
}

const (
	// defaultMerkleDepth 默认价格Merkle树深度为10
	// 原因：深度10支持最多1024个商品的价格目录，与预言机侧的建树深度一致；
	// 深度必须与链上验证合约登记的验证密钥匹配，不可随意调整
	defaultMerkleDepth = 10

	// defaultDropThresholdPercent 默认理赔降价阈值为10%
	// 原因：与保单合约的赔付条件一致，跌幅不足10%的证明在链上也会被拒绝，
	// 本地先行校验可以省去一次无效的证明生成
	defaultDropThresholdPercent = 10
)
