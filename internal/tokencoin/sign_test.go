package tokencoin

import (
	"testing"

	"github.com/DIG-Network/dig-collateral-coin/config"
	"github.com/DIG-Network/dig-collateral-coin/internal/signer"
	"github.com/DIG-Network/dig-collateral-coin/pkg/crypto"
	"github.com/DIG-Network/dig-collateral-coin/pkg/spend"
)

func signBundle(t *testing.T, p config.ProtocolConfig, set *spend.SpendSet, keys ...*crypto.PrivateKey) *spend.SpendBundle {
	t.Helper()
	bundle, err := signer.New(p).Sign(set, keys, p.UseAltSignatureDomain)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return bundle
}
