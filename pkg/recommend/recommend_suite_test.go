package recommend_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRecommend(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Recommendation Engine Suite")
}
