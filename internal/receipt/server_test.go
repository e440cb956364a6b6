package receipt

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/keiri-app/receiptscan/internal/classify"
	"github.com/keiri-app/receiptscan/internal/extract"
	"github.com/keiri-app/receiptscan/internal/preprocess"
	"github.com/keiri-app/receiptscan/internal/scanning"
)

var _ = Describe("Server", func() {
	var (
		db          *mockDB
		storage     *mockStorage
		engine      *mockEngine
		service     *Service
		auth        BasicAuth
		server      *Server
		ghttpServer *ghttp.Server
	)

	newService := func() *Service {
		return NewServiceWithDeps(
			db, storage, &mockPreprocessor{}, []scanning.Engine{engine},
			classify.New(classify.DefaultTaxonomy()), preprocess.DefaultOptions(),
			&mockIDGenerator{id: "test-id-123"},
			&mockTimeSource{now: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)},
		)
	}

	setupServer := func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
		server = NewServerWithMux(service, auth, http.NewServeMux())
		ghttpServer = ghttp.NewServer()
		ghttpServer.AppendHandlers(server.ServeHTTP)
	}

	BeforeEach(func() {
		db = newMockDB()
		storage = newMockStorage()
		engine = &mockEngine{name: "gemini", text: sampleReceiptText, conf: 0.9}
		service = newService()
		auth = BasicAuth{}
		setupServer()
	})

	AfterEach(func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
	})

	uploadRequest := func(filename string, data []byte) *http.Request {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		part, err := writer.CreateFormFile("file", filename)
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write(data)
		Expect(err).NotTo(HaveOccurred())
		Expect(writer.Close()).NotTo(HaveOccurred())

		req, err := http.NewRequest("POST", ghttpServer.URL()+"/api/receipts", &buf)
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", writer.FormDataContentType())
		return req
	}

	Describe("handleListReceipts", func() {
		When("receipts exist", func() {
			BeforeEach(func() {
				db.receipts["id1"] = &Receipt{ID: "id1"}
				db.receipts["id2"] = &Receipt{ID: "id2"}
			})

			It("should return all receipts", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/receipts")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var receipts []*Receipt
				Expect(json.NewDecoder(resp.Body).Decode(&receipts)).NotTo(HaveOccurred())
				Expect(receipts).To(HaveLen(2))
			})
		})

		When("listing fails", func() {
			BeforeEach(func() {
				db.listErr = errors.New("db error")
			})

			It("should return status Internal Server Error", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/receipts")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
				resp.Body.Close()
			})
		})
	})

	Describe("handleUploadReceipt", func() {
		When("the upload is a valid image", func() {
			It("should return status Created with the processed receipt", func() {
				resp, err := http.DefaultClient.Do(uploadRequest("receipt.jpg", []byte("fake image data")))
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))

				var receipt Receipt
				Expect(json.NewDecoder(resp.Body).Decode(&receipt)).NotTo(HaveOccurred())
				Expect(receipt.ID).To(Equal("test-id-123"))
				Expect(receipt.Extraction.StoreName).To(Equal("セブンイレブン渋谷店"))
				Expect(receipt.Classification.Category.ID).To(Equal("groceries"))
			})

			It("should infer the content type from the extension when the part has none", func() {
				// CreateFormFile would set application/octet-stream, so build
				// the part by hand with only a disposition header.
				var buf bytes.Buffer
				writer := multipart.NewWriter(&buf)
				h := make(textproto.MIMEHeader)
				h.Set("Content-Disposition", `form-data; name="file"; filename="receipt.png"`)
				part, err := writer.CreatePart(h)
				Expect(err).NotTo(HaveOccurred())
				_, err = part.Write([]byte("fake image data"))
				Expect(err).NotTo(HaveOccurred())
				Expect(writer.Close()).NotTo(HaveOccurred())

				req, err := http.NewRequest("POST", ghttpServer.URL()+"/api/receipts", &buf)
				Expect(err).NotTo(HaveOccurred())
				req.Header.Set("Content-Type", writer.FormDataContentType())

				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				var receipt Receipt
				Expect(json.NewDecoder(resp.Body).Decode(&receipt)).NotTo(HaveOccurred())
				Expect(receipt.ContentType).To(Equal("image/png"))
			})
		})

		When("no file is attached", func() {
			It("should return status Bad Request", func() {
				var buf bytes.Buffer
				writer := multipart.NewWriter(&buf)
				Expect(writer.Close()).NotTo(HaveOccurred())

				req, err := http.NewRequest("POST", ghttpServer.URL()+"/api/receipts", &buf)
				Expect(err).NotTo(HaveOccurred())
				req.Header.Set("Content-Type", writer.FormDataContentType())

				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				resp.Body.Close()
			})
		})

		When("every OCR engine fails", func() {
			BeforeEach(func() {
				engine.err = errors.New("engine offline")
			})

			It("should return status Unprocessable Entity with guidance", func() {
				resp, err := http.DefaultClient.Do(uploadRequest("receipt.jpg", []byte("fake image data")))
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusUnprocessableEntity))

				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(body)).To(ContainSubstring("retake the photo"))
			})
		})
	})

	Describe("handleGetReceipt", func() {
		BeforeEach(func() {
			db.receipts["id1"] = &Receipt{
				ID:         "id1",
				Extraction: extract.ReceiptRecord{StoreName: "セブンイレブン渋谷店"},
			}
		})

		It("should return the receipt", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/receipts/id1")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var receipt Receipt
			Expect(json.NewDecoder(resp.Body).Decode(&receipt)).NotTo(HaveOccurred())
			Expect(receipt.Extraction.StoreName).To(Equal("セブンイレブン渋谷店"))
		})

		It("should return status Not Found for an unknown ID", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/receipts/missing")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			resp.Body.Close()
		})
	})

	Describe("handleDeleteReceipt", func() {
		BeforeEach(func() {
			db.receipts["id1"] = &Receipt{ID: "id1", Filename: "id1_receipt.jpg"}
			storage.files["id1_receipt.jpg"] = []byte("fake image data")
		})

		It("should return status No Content and remove the receipt", func() {
			req, err := http.NewRequest("DELETE", ghttpServer.URL()+"/api/receipts/id1", nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			resp.Body.Close()

			Expect(db.receipts).NotTo(HaveKey("id1"))
		})
	})

	Describe("handleGetReceiptFile", func() {
		BeforeEach(func() {
			db.receipts["id1"] = &Receipt{ID: "id1", Filename: "id1_receipt.jpg", ContentType: "image/jpeg"}
			storage.files["id1_receipt.jpg"] = []byte("fake image data")
		})

		It("should serve the stored image with its content type", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/receipts/id1/file")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("image/jpeg"))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(body).To(Equal([]byte("fake image data")))
		})
	})

	Describe("authentication", func() {
		BeforeEach(func() {
			auth = BasicAuth{Username: "user", Password: "secret"}
			setupServer()
		})

		When("no credentials are provided", func() {
			It("should return status Unauthorized with a challenge", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/receipts")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
				Expect(resp.Header.Get("WWW-Authenticate")).To(ContainSubstring("Basic"))
				resp.Body.Close()
			})
		})

		When("wrong credentials are provided", func() {
			It("should return status Unauthorized", func() {
				req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/receipts", nil)
				Expect(err).NotTo(HaveOccurred())
				req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("user:wrong")))

				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
				resp.Body.Close()
			})
		})

		When("correct credentials are provided", func() {
			It("should return status OK", func() {
				req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/receipts", nil)
				Expect(err).NotTo(HaveOccurred())
				req.SetBasicAuth("user", "secret")

				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				resp.Body.Close()
			})
		})
	})
})
