package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"razorpay-provider/internal/models"
	"razorpay-provider/internal/repositories/interfaces"
	"razorpay-provider/internal/utils"
	"razorpay-provider/pkg/logger"
	"razorpay-provider/pkg/payment"
)

const customerPageSize = 10

var ErrNoGatewayCustomers = errors.New("no customers exist on the gateway")

// CustomerStore reads host customers and persists gateway linkage on them.
type CustomerStore interface {
	GetByID(ctx context.Context, id string) (*models.Customer, error)
	UpdateMetadata(ctx context.Context, id, namespace string, patch map[string]interface{}) error
}

// CustomerReconciler finds, edits, creates or relinks the Razorpay customer
// for a host customer. It never fails the caller; every step degrades to the
// next and the final fallback is nil.
type CustomerReconciler struct {
	gateway  payment.Gateway
	store    CustomerStore
	logger   *logger.Logger
	now      func() time.Time
}

func NewCustomerReconciler(gateway payment.Gateway, store CustomerStore, log *logger.Logger) *CustomerReconciler {
	return &CustomerReconciler{
		gateway:  gateway,
		store:    store,
		logger:   log,
		now:      time.Now,
	}
}

// Reconcile returns the gateway customer to attach to the order, or nil.
// intent.Notes["razorpay_id"] is set whenever a customer is created or
// recovered.
func (r *CustomerReconciler) Reconcile(ctx context.Context, customer *models.Customer, intent *payment.OrderRequest, billing *models.Address) *payment.Customer {
	if customer == nil {
		r.logger.WithContext(ctx).Warn("no host customer on the session, skipping customer reconciliation")
		return nil
	}
	r.Refresh(ctx, customer)
	log := r.logger.WithContext(ctx).WithField("customer_id", customer.ID)

	if linked := r.linkedID(customer, intent); linked != "" {
		existing, err := r.gateway.FetchCustomer(ctx, linked)
		if err != nil {
			log.WithError(err).WithField("rp_customer_id", linked).Warn("Linked Razorpay customer could not be fetched")
		} else {
			return r.editExisting(ctx, log, customer, existing)
		}
	}

	created, err := r.create(ctx, customer, intent, billing)
	if err == nil {
		return created
	}
	log.WithError(err).Info("Razorpay customer not created, relinking by polling")

	recovered, err := r.pollAndRelink(ctx, customer, intent)
	if err != nil {
		log.WithError(err).Error("Unable to find or create a Razorpay customer")
		return nil
	}
	return recovered
}

// Refresh loads the stored host record so the gateway link comes from the
// store rather than the request. Contact fields from the request win when set.
func (r *CustomerReconciler) Refresh(ctx context.Context, customer *models.Customer) {
	if customer == nil || customer.ID == "" {
		return
	}
	log := r.logger.WithContext(ctx).WithField("customer_id", customer.ID)

	stored, err := r.store.GetByID(ctx, customer.ID)
	if err != nil {
		if !errors.Is(err, interfaces.ErrCustomerNotFound) {
			log.WithError(err).Warn("Unable to load host customer, using session copy")
		}
		return
	}

	customer.FirstName = firstNonEmpty(customer.FirstName, stored.FirstName)
	customer.LastName = firstNonEmpty(customer.LastName, stored.LastName)
	customer.Email = firstNonEmpty(customer.Email, stored.Email)
	customer.Phone = firstNonEmpty(customer.Phone, stored.Phone)
	if len(customer.Addresses) == 0 {
		customer.Addresses = stored.Addresses
	}
	customer.Metadata = stored.Metadata
}

func (r *CustomerReconciler) linkedID(customer *models.Customer, intent *payment.OrderRequest) string {
	if intent != nil && intent.Notes["razorpay_id"] != "" {
		return intent.Notes["razorpay_id"]
	}
	if id := customer.LegacyRazorpayID(); id != "" {
		return id
	}
	return customer.RazorpayCustomerID()
}

// editExisting pushes host contact details onto the gateway record. Host
// values win when set; a failed edit keeps the fetched record.
func (r *CustomerReconciler) editExisting(ctx context.Context, log *logger.Logger, customer *models.Customer, existing *payment.Customer) *payment.Customer {
	request := &payment.CustomerRequest{
		Email:   firstNonEmpty(customer.Email, existing.Email),
		Contact: firstNonEmpty(customer.Phone, customer.AddressPhone(), existing.Contact),
		Name:    firstNonEmpty(customer.FullName(), existing.Name),
	}

	updated, err := r.gateway.EditCustomer(ctx, existing.ID, request)
	if err != nil {
		log.WithError(err).WithField("rp_customer_id", existing.ID).Warn("Unable to edit Razorpay customer")
		return existing
	}
	return updated
}

func (r *CustomerReconciler) create(ctx context.Context, customer *models.Customer, intent *payment.OrderRequest, billing *models.Address) (*payment.Customer, error) {
	phone := customer.Phone
	if phone == "" && billing != nil {
		phone = billing.Phone
	}
	if phone == "" {
		phone = customer.AddressPhone()
	}
	if phone == "" {
		return nil, errors.New("phone number required to create razorpay customer")
	}
	if customer.Email == "" {
		return nil, errors.New("email required to create razorpay customer")
	}

	failExisting := 0
	created, err := r.gateway.CreateCustomer(ctx, &payment.CustomerRequest{
		Name:         customer.FullName(),
		Email:        customer.Email,
		Contact:      phone,
		GSTIN:        customer.GSTIN(),
		FailExisting: &failExisting,
		Notes:        payment.Notes{"updated_at": r.now().UTC().Format(time.RFC3339)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create razorpay customer: %w", err)
	}

	r.link(ctx, customer, intent, created.ID)
	return created, nil
}

// pollAndRelink looks for a contact or email match on the first page of the
// gateway customer list. When nothing matches, the first record of that page
// is used.
func (r *CustomerReconciler) pollAndRelink(ctx context.Context, customer *models.Customer, intent *payment.OrderRequest) (*payment.Customer, error) {
	list, err := r.gateway.ListCustomers(ctx, customerPageSize, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list razorpay customers: %w", err)
	}
	if len(list.Items) == 0 {
		return nil, ErrNoGatewayCustomers
	}

	for i := range list.Items {
		candidate := &list.Items[i]
		if matchesCustomer(candidate, customer) {
			r.link(ctx, customer, intent, candidate.ID)
			return candidate, nil
		}
	}

	fallback := &list.Items[0]
	r.logger.WithContext(ctx).
		WithFields(map[string]interface{}{"customer_id": customer.ID, "rp_customer_id": fallback.ID}).
		Warn("No Razorpay customer matched, linking first listed customer")
	r.link(ctx, customer, intent, fallback.ID)
	return fallback, nil
}

func (r *CustomerReconciler) link(ctx context.Context, customer *models.Customer, intent *payment.OrderRequest, rpCustomerID string) {
	if intent != nil {
		if intent.Notes == nil {
			intent.Notes = payment.Notes{}
		}
		intent.Notes["razorpay_id"] = rpCustomerID
	}

	if customer.ID == "" {
		return
	}
	customer.SetMetadata(models.MetadataNamespaceRazorpay, models.MetadataKeyCustomerID, rpCustomerID)

	err := r.store.UpdateMetadata(ctx, customer.ID, models.MetadataNamespaceRazorpay, map[string]interface{}{
		models.MetadataKeyCustomerID: rpCustomerID,
	})
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).
			WithFields(map[string]interface{}{"customer_id": customer.ID, "rp_customer_id": rpCustomerID}).
			Error("Unable to persist Razorpay customer link")
	}
}

func matchesCustomer(candidate *payment.Customer, customer *models.Customer) bool {
	if phone := utils.NormalizePhone(customer.Phone); phone != "" && utils.NormalizePhone(candidate.Contact) == phone {
		return true
	}
	return customer.Email != "" && candidate.Email == customer.Email
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
