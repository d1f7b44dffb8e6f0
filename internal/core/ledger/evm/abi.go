package evm

// vaultABI 保险金库合约的接口描述
//
// 与已部署的PriceShieldVault保持一致：承诺与Merkle根按bytes32编码，
// 金额与日期按uint256编码，证明按Groth16标准三元组编码。
const vaultABI = `[
  {
    "type": "function",
    "name": "buyPolicy",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "commitment", "type": "bytes32"},
      {"name": "premium", "type": "uint256"}
    ],
    "outputs": [{"name": "policyId", "type": "uint256"}]
  },
  {
    "type": "function",
    "name": "claimPayout",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "policyId", "type": "uint256"},
      {"name": "commitment", "type": "bytes32"},
      {"name": "merkleRoot", "type": "bytes32"},
      {"name": "purchaseDate", "type": "uint256"},
      {"name": "premium", "type": "uint256"},
      {"name": "proofA", "type": "uint256[2]"},
      {"name": "proofB", "type": "uint256[2][2]"},
      {"name": "proofC", "type": "uint256[2]"},
      {"name": "publicSignals", "type": "uint256[]"}
    ],
    "outputs": []
  },
  {
    "type": "function",
    "name": "priceMerkleRoot",
    "stateMutability": "view",
    "inputs": [],
    "outputs": [{"name": "", "type": "bytes32"}]
  },
  {
    "type": "function",
    "name": "policies",
    "stateMutability": "view",
    "inputs": [{"name": "policyId", "type": "uint256"}],
    "outputs": [
      {"name": "buyer", "type": "address"},
      {"name": "commitment", "type": "bytes32"},
      {"name": "premiumPaid", "type": "uint256"},
      {"name": "purchaseDate", "type": "uint256"},
      {"name": "alreadyClaimed", "type": "bool"}
    ]
  },
  {
    "type": "event",
    "name": "PolicyPurchased",
    "inputs": [
      {"name": "policyId", "type": "uint256", "indexed": true},
      {"name": "buyer", "type": "address", "indexed": true},
      {"name": "commitment", "type": "bytes32", "indexed": false}
    ],
    "anonymous": false
  }
]`
