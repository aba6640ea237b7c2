// Package contracts holds the canned Solidity sources used when a project is
// created from a template without its own source code.
package contracts

import (
	"fmt"

	"github.com/smartforge-lab/smartforge/internal/models"
)

const erc20Template = `// SPDX-License-Identifier: MIT
pragma solidity ^0.8.20;

import "@openzeppelin/contracts/token/ERC20/ERC20.sol";
import "@openzeppelin/contracts/access/Ownable.sol";

contract MyToken is ERC20, Ownable {
    constructor() ERC20("MyToken", "MTK") Ownable(msg.sender) {
        _mint(msg.sender, 1000000 * 10 ** decimals());
    }

    function mint(address to, uint256 amount) public onlyOwner {
        _mint(to, amount);
    }
}
`

const erc721Template = `// SPDX-License-Identifier: MIT
pragma solidity ^0.8.20;

import "@openzeppelin/contracts/token/ERC721/ERC721.sol";
import "@openzeppelin/contracts/access/Ownable.sol";

contract MyNFT is ERC721, Ownable {
    uint256 private _nextTokenId;

    constructor() ERC721("MyNFT", "MNFT") Ownable(msg.sender) {}

    function safeMint(address to) public onlyOwner returns (uint256) {
        uint256 tokenId = _nextTokenId++;
        _safeMint(to, tokenId);
        return tokenId;
    }
}
`

const customTemplate = `// SPDX-License-Identifier: MIT
pragma solidity ^0.8.20;

contract MyContract {
    address public owner;

    constructor() {
        owner = msg.sender;
    }
}
`

// TemplateSource returns the default source code for a contract template.
func TemplateSource(template models.ContractTemplate) (string, error) {
	switch template {
	case models.ContractTemplateERC20:
		return erc20Template, nil
	case models.ContractTemplateERC721:
		return erc721Template, nil
	case models.ContractTemplateCustom:
		return customTemplate, nil
	default:
		return "", fmt.Errorf("unknown contract template: %s", template)
	}
}
