package receipt

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/keiri-app/receiptscan/internal/classify"
	"github.com/keiri-app/receiptscan/internal/extract"
)

var _ = Describe("BoltDB", func() {
	var (
		tmpDir string
		dbPath string
		db     *BoltDB
	)

	testReceipt := func(id string) *Receipt {
		return &Receipt{
			ID: id,
			Extraction: extract.ReceiptRecord{
				StoreName:   "セブンイレブン渋谷店",
				Date:        "2024-01-10",
				TotalAmount: 1500,
				TaxRate:     10,
			},
			Classification: classify.Result{
				Category:   classify.Category{ID: "groceries", AccountTitle: "福利厚生費", TaxDeductible: true},
				Confidence: 0.75,
			},
			OCREngine:     "gemini",
			OCRConfidence: 0.9,
			Filename:      id + "_receipt.jpg",
			ContentType:   "image/jpeg",
			CreatedAt:     time.Date(2024, 1, 10, 12, 34, 0, 0, time.UTC),
			UpdatedAt:     time.Date(2024, 1, 10, 12, 34, 0, 0, time.UTC),
		}
	}

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("SaveReceipt", func() {
		var err error

		JustBeforeEach(func() {
			err = db.SaveReceipt(testReceipt("test-id"))
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should save the receipt to the database", func() {
				saved, getErr := db.GetReceipt("test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.ID).To(Equal("test-id"))
			})
		})

		When("saving the same ID again", func() {
			It("replaces the record", func() {
				updated := testReceipt("test-id")
				updated.Extraction.TotalAmount = 2000
				Expect(db.SaveReceipt(updated)).NotTo(HaveOccurred())

				saved, getErr := db.GetReceipt("test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.Extraction.TotalAmount).To(Equal(2000))
			})
		})
	})

	Describe("GetReceipt", func() {
		var (
			receiptID string
			receipt   *Receipt
			err       error
		)

		JustBeforeEach(func() {
			receipt, err = db.GetReceipt(receiptID)
		})

		When("receipt exists", func() {
			BeforeEach(func() {
				receiptID = "test-id"
				Expect(db.SaveReceipt(testReceipt("test-id"))).NotTo(HaveOccurred())
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should round-trip the extraction", func() {
				Expect(receipt.Extraction.StoreName).To(Equal("セブンイレブン渋谷店"))
				Expect(receipt.Extraction.TotalAmount).To(Equal(1500))
			})

			It("should round-trip the classification", func() {
				Expect(receipt.Classification.Category.ID).To(Equal("groceries"))
				Expect(receipt.Classification.Confidence).To(Equal(0.75))
			})
		})

		When("receipt does not exist", func() {
			BeforeEach(func() {
				receiptID = "nonexistent"
			})

			It("should return an error", func() {
				Expect(err).To(MatchError(ContainSubstring("receipt not found")))
			})
		})
	})

	Describe("ListReceipts", func() {
		var (
			receipts []*Receipt
			err      error
		)

		JustBeforeEach(func() {
			receipts, err = db.ListReceipts()
		})

		When("the database is empty", func() {
			It("returns an empty slice", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(receipts).To(BeEmpty())
			})
		})

		When("receipts exist", func() {
			BeforeEach(func() {
				Expect(db.SaveReceipt(testReceipt("a"))).NotTo(HaveOccurred())
				Expect(db.SaveReceipt(testReceipt("b"))).NotTo(HaveOccurred())
			})

			It("returns all of them", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(receipts).To(HaveLen(2))
			})
		})
	})

	Describe("DeleteReceipt", func() {
		BeforeEach(func() {
			Expect(db.SaveReceipt(testReceipt("test-id"))).NotTo(HaveOccurred())
		})

		It("removes the receipt", func() {
			Expect(db.DeleteReceipt("test-id")).NotTo(HaveOccurred())
			_, err := db.GetReceipt("test-id")
			Expect(err).To(HaveOccurred())
		})

		It("is a no-op for an unknown ID", func() {
			Expect(db.DeleteReceipt("nonexistent")).NotTo(HaveOccurred())
		})
	})
})
