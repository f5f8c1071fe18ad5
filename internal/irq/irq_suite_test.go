package irq_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestIRQ(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Interrupt Controller Suite")
}
